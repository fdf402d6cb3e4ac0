package main

import (
	"fmt"

	"canvasmind/cmd/canvasmind/ui"

	"github.com/spf13/cobra"
)

// statsCmd prints statistics and module health
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show processing statistics and module health",
	Long: `Statistics accumulate across runs in .canvasmind/usage.json.
Module health reflects the modules loaded by this run's configuration.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outputFormat, false); err != nil {
		return err
	}
	report := statsReport{
		Statistics: engine.Statistics(),
		Modules:    engine.ModuleHealth(),
	}

	if outputFormat == formatJSON {
		out, err := renderJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), statsText(report, ui.DefaultStyles()))
	return nil
}
