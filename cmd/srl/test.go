package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rdforge/srl/manifest"
)

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test MANIFEST",
		Short: "Run a YAML evaluation suite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}
			failed := 0
			for _, r := range m.Run() {
				if r.Passed {
					fmt.Printf("ok   %s\n", r.Name)
					continue
				}
				failed++
				fmt.Printf("FAIL %s\n", r.Name)
				if r.Detail != "" {
					fmt.Printf("     %s\n", r.Detail)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d cases failed", failed, len(m.Cases))
			}
			return nil
		},
	}
}
