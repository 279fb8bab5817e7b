package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/replicadse/workflow/internal/errs"
)

var manCmd = &cobra.Command{
	Use:   "man",
	Short: "Renders the manual.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")

		if err := os.MkdirAll(out, 0o755); err != nil {
			return errs.Wrap(errs.KindIO, err, "")
		}

		switch format {
		case "manpages":
			header := &doc.GenManHeader{Title: "WORKFLOW", Section: "1"}
			return doc.GenManTree(rootCmd, header, out)
		case "markdown":
			return doc.GenMarkdownTree(rootCmd, out)
		default:
			return errs.New(errs.KindArgument, "unknown manual format: "+format)
		}
	},
}

func init() {
	manCmd.Flags().StringP("out", "o", "", "The directory to render the manual into.")
	_ = manCmd.MarkFlagRequired("out")
	manCmd.Flags().StringP("format", "f", "", "The manual format.")
	_ = manCmd.MarkFlagRequired("format")
}
