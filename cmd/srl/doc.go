package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rdforge/srl/parser"
	"github.com/rdforge/srl/tools"
)

func docCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "doc RULES",
		Short: "Render rule-set documentation as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := parser.ParseFile(args[0])
			if err != nil {
				return err
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
			title := filepath.Base(args[0])
			return tools.RenderRulesPage(rs, title, w)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}
