package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/reference"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Workflow related subcommands.",
}

var workflowInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes a new template workflow.",
	RunE: func(cmd *cobra.Command, args []string) error {
		template, _ := cmd.Flags().GetString("template")
		output, _ := cmd.Flags().GetString("output")

		rendered, err := reference.Render(reference.InitTemplate(template))
		if err != nil {
			return err
		}
		if output == "-" {
			_, err := os.Stdout.Write(rendered)
			return err
		}
		return os.WriteFile(output, rendered, 0o644)
	},
}

var workflowSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Renders the workflow schema to STDOUT.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := reference.Schema()
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	workflowInitCmd.Flags().StringP("template", "t", "min", "The template to init with.")
	workflowInitCmd.Flags().StringP("output", "o", "./.workflow.yaml",
		`The file to render the output to. "-" renders to STDOUT.`)

	workflowCmd.AddCommand(workflowInitCmd)
	workflowCmd.AddCommand(workflowSchemaCmd)
}
