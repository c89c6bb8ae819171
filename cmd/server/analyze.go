package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/ghost-commit/pkg/config"
)

func newAnalyzeCmd(cfg func() *config.Config) *cobra.Command {
	var quick bool

	cmd := &cobra.Command{
		Use:   "analyze <repo-url>",
		Short: "Analyze a repository and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(cmd.Context(), cfg())
			if err != nil {
				return err
			}
			defer a.Close()

			var out any
			if quick {
				out, err = a.insight.QuickAnalyze(cmd.Context(), args[0])
			} else {
				out, err = a.analysis.Analyze(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&quick, "quick", false, "run the quick analysis with AI insights")
	return cmd
}
