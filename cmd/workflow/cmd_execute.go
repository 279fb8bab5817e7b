package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/errs"
	execengine "github.com/replicadse/workflow/internal/exec"
	"github.com/replicadse/workflow/internal/planfmt"
)

var executeCmd = &cobra.Command{
	Use:     "execute",
	Aliases: []string{"exec", "x"},
	Short:   "Executes an execution plan.",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatStr, _ := cmd.Flags().GetString("format")
		workers, _ := cmd.Flags().GetInt("workers")
		noStdout, _ := cmd.Flags().GetBool("no-stdout")
		noStderr, _ := cmd.Flags().GetBool("no-stderr")
		prefix, _ := cmd.Flags().GetString("prefix")

		f, err := planfmt.ParseInput(formatStr)
		if err != nil {
			return err
		}
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errs.Wrap(errs.KindIO, err, "")
		}
		p, err := planfmt.Deserialize(f, raw)
		if err != nil {
			return err
		}

		engine := execengine.New(execengine.OutputMode{
			Stdout: !noStdout,
			Stderr: !noStderr,
		}, prefix, log)
		return engine.Execute(context.Background(), p, workers)
	},
}

func init() {
	executeCmd.Flags().StringP("format", "f", planfmt.InputFormats[0], "The format of the execution plan.")
	executeCmd.Flags().IntP("workers", "w", 1,
		"Defines how many worker goroutines run concurrently per stage.")
	executeCmd.Flags().Bool("no-stdout", false,
		"Disables any output to STDOUT. Useful for preventing leakage of secrets and keeping the logs clean.")
	executeCmd.Flags().Bool("no-stderr", false,
		"Disables any output to STDERR. Useful for preventing leakage of secrets and keeping the logs clean.")
	executeCmd.Flags().String("prefix", "",
		"Tags every line of task output with this prefix instead of passing the streams through raw.")
}
