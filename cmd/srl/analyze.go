package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rdforge/srl/engine"
	"github.com/rdforge/srl/parser"
	"github.com/rdforge/srl/tools"
)

func analyzeCmd() *cobra.Command {
	var (
		dotOut     string
		mermaidOut string
		showLayers bool
	)
	cmd := &cobra.Command{
		Use:   "analyze RULES",
		Short: "Analyze rule-set structure and stratification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			a := tools.Analyze(rs)
			fmt.Print(a.Summary())

			if len(a.Errors) > 0 {
				return fmt.Errorf("rule set does not stratify")
			}

			strat, err := engine.Stratify(rs)
			if err != nil {
				return err
			}
			if showLayers {
				for i, stratum := range strat.Strata {
					fmt.Printf("stratum %d:\n", i)
					for _, ri := range stratum {
						for _, t := range rs.Rules[ri].Head {
							fmt.Printf("  rule %d: %s\n", ri, t)
						}
					}
				}
			}
			if dotOut != "" {
				f, err := os.Create(dotOut)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := tools.Dot(strat, f); err != nil {
					return err
				}
			}
			if mermaidOut != "" {
				f, err := os.Create(mermaidOut)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := tools.Mermaid(strat, f); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dotOut, "dot", "", "write the dependency graph as Graphviz dot")
	cmd.Flags().StringVar(&mermaidOut, "mermaid", "", "write the dependency graph as Mermaid")
	cmd.Flags().BoolVar(&showLayers, "show-layers", false, "list rules per stratum")
	return cmd
}
