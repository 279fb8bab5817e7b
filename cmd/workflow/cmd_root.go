package main

import (
	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/errs"
)

// experimental is set by the global -e/--experimental flag; it gates
// commands that are not yet considered stable (currently: watch).
var experimental bool

var rootCmd = &cobra.Command{
	Use:           "workflow",
	Short:         "A makefile alternative / task runner.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&experimental, "experimental", "e", false,
		"Enables experimental features.")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(manCmd)
	rootCmd.AddCommand(autocompleteCmd)
}

// requireExperimental gates a command behind the global --experimental
// flag (§6: watch is the only command currently gated).
func requireExperimental(name string) error {
	if experimental {
		return nil
	}
	return errs.New(errs.KindExperimentalCommand, name)
}
