package main

import (
	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/planfmt"
	"github.com/replicadse/workflow/internal/planner"
)

type describeOutput struct {
	Stages [][]string `yaml:"stages" json:"stages" toml:"stages"`
}

var describeCmd = &cobra.Command{
	Use:     "describe",
	Aliases: []string{"desc", "d"},
	Short:   "Describes which nodes are executed in which stages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowPath, _ := cmd.Flags().GetString("workflow")
		nodeNames, _ := cmd.Flags().GetStringArray("node")
		regex, _ := cmd.Flags().GetString("regex")
		format, _ := cmd.Flags().GetString("output")

		wf, err := loadWorkflowFile(workflowPath)
		if err != nil {
			return err
		}
		targets, err := resolveNodes(wf, nodeNames, regex)
		if err != nil {
			return err
		}

		p := planner.New(wf)
		stages, err := p.Describe(targets)
		if err != nil {
			return err
		}
		return writeFormatted(format, describeOutput{Stages: stages})
	},
}

func init() {
	describeCmd.Flags().String("workflow", "./.workflow.yaml", "The workflow file to use.")
	describeCmd.Flags().StringArrayP("node", "n", nil, "Adds a node.")
	describeCmd.Flags().StringP("regex", "r", "", "Selects nodes by regex instead of by name.")
	describeCmd.MarkFlagsMutuallyExclusive("node", "regex")
	describeCmd.MarkFlagsOneRequired("node", "regex")
	describeCmd.Flags().StringP("output", "o", planfmt.OutputFormats[0], "The output format.")
}
