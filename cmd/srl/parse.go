package main

import (
	"fmt"
	"os"

	"github.com/jsccast/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rdforge/srl/parser"
)

// ruleSummary is the YAML shape printed by "srl parse".  Field order
// is preserved in the output.
type ruleSummary struct {
	Rules     int               `yaml:"rules"`
	Data      int               `yaml:"dataTriples"`
	Prefixes  map[string]string `yaml:"prefixes,omitempty"`
	RuleHeads []string          `yaml:"heads,omitempty"`
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse and validate an SRL rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			logger.Info("parsed", zap.String("file", args[0]), zap.Int("rules", len(rs.Rules)))

			s := ruleSummary{
				Rules:    len(rs.Rules),
				Data:     len(rs.Data),
				Prefixes: rs.Prefixes,
			}
			for _, r := range rs.Rules {
				for _, t := range r.Head {
					s.RuleHeads = append(s.RuleHeads, t.String())
				}
			}
			bs, err := yaml.Marshal(&s)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s", bs)
			return nil
		},
	}
}
