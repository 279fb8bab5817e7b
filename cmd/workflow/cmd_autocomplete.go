package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/errs"
)

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete",
	Short: "Renders shell completion scripts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		shell, _ := cmd.Flags().GetString("shell")

		if err := os.MkdirAll(out, 0o755); err != nil {
			return errs.Wrap(errs.KindIO, err, "")
		}

		switch shell {
		case "bash":
			return rootCmd.GenBashCompletionFile(filepath.Join(out, "workflow.bash"))
		case "zsh":
			return rootCmd.GenZshCompletionFile(filepath.Join(out, "_workflow"))
		case "fish":
			return rootCmd.GenFishCompletionFile(filepath.Join(out, "workflow.fish"), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionFile(filepath.Join(out, "workflow.ps1"))
		default:
			return errs.New(errs.KindArgument, "unknown shell: "+shell)
		}
	},
}

func init() {
	autocompleteCmd.Flags().StringP("out", "o", "", "The directory to render completion scripts into.")
	_ = autocompleteCmd.MarkFlagRequired("out")
	autocompleteCmd.Flags().StringP("shell", "s", "", "The target shell (bash, zsh, fish, powershell).")
	_ = autocompleteCmd.MarkFlagRequired("shell")
}
