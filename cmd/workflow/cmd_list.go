package main

import (
	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/planfmt"
	"github.com/replicadse/workflow/internal/planner"
)

type listOutput struct {
	Nodes []planner.NodeInfo `yaml:"nodes" json:"nodes" toml:"nodes"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "Lists all available nodes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowPath, _ := cmd.Flags().GetString("workflow")
		format, _ := cmd.Flags().GetString("output")

		wf, err := loadWorkflowFile(workflowPath)
		if err != nil {
			return err
		}
		p := planner.New(wf)
		return writeFormatted(format, listOutput{Nodes: p.List()})
	},
}

func init() {
	listCmd.Flags().String("workflow", "./.workflow.yaml", "The workflow file to use.")
	listCmd.Flags().StringP("output", "o", planfmt.OutputFormats[0], "The output format.")
}
