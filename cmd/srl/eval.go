package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rdforge/srl/engine"
	"github.com/rdforge/srl/parser"
	"github.com/rdforge/srl/rdf"
	"github.com/rdforge/srl/rdf/ntio"
)

func evalCmd() *cobra.Command {
	var (
		out           string
		stats         bool
		resultsOnly   bool
		maxIterations int
		maxDerived    int
	)
	cmd := &cobra.Command{
		Use:   "eval RULES [DATA...]",
		Short: "Evaluate rules against N-Triples data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}

			g := rdf.NewMemGraph()
			for _, path := range args[1:] {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				err = ntio.Read(f, g)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			logger.Info("loaded input",
				zap.Int("triples", g.Len()),
				zap.Int("rules", len(rs.Rules)))

			res, err := engine.Evaluate(rs, g, engine.Options{
				ResultsOnly:   resultsOnly,
				MaxIterations: maxIterations,
				MaxDerived:    maxDerived,
			})
			if err != nil {
				// A blown budget still has a partial graph worth
				// reporting before failing.
				if res != nil && stats {
					printStats(res)
				}
				return err
			}

			for _, d := range res.Diagnostics {
				logger.Warn("diagnostic",
					zap.String("kind", d.Kind),
					zap.Int("rule", d.Rule),
					zap.String("message", d.Message))
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := ntio.Write(w, res.Graph); err != nil {
				return err
			}
			if stats {
				printStats(res)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print evaluation statistics")
	cmd.Flags().BoolVar(&resultsOnly, "results-only", false, "output only derived triples")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration cap per stratum")
	cmd.Flags().IntVar(&maxDerived, "max-derived", 0, "derived-triple cap")
	return cmd
}

func printStats(res *engine.Result) {
	fmt.Fprintf(os.Stderr, "derived %d triples in %s\n", res.Stats.Derived, res.Stats.Duration)
	for i, s := range res.Stats.Strata {
		fmt.Fprintf(os.Stderr, "  stratum %d: %d rules, %d iterations, %d derived\n",
			i, s.Rules, s.Iterations, s.Derived)
	}
}
