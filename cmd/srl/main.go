/* Copyright 2024 RDForge Contributors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// srl is the command-line front end for the SRL rule engine.
//
//	srl parse rules.srl
//	srl eval rules.srl data.nt -o out.nt --stats
//	srl analyze rules.srl --dot deps.dot
//	srl test suite.yaml
//	srl doc rules.srl -o rules.html
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	logger  *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "srl",
		Short:         "Evaluate SRL rule sets over RDF graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if verbose {
				logger, err = zap.NewDevelopment()
			} else {
				cfg := zap.NewProductionConfig()
				cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
				logger, err = cfg.Build()
			}
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(parseCmd())
	root.AddCommand(evalCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(testCmd())
	root.AddCommand(docCmd())

	if err := root.Execute(); err != nil {
		if logger != nil {
			logger.Error("failed", zap.Error(err))
		}
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
