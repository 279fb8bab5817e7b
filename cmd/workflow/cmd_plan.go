package main

import (
	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/planfmt"
	"github.com/replicadse/workflow/internal/planner"
)

var planCmd = &cobra.Command{
	Use:     "plan",
	Aliases: []string{"p"},
	Short:   "Creates an execution plan.",
	RunE: func(cmd *cobra.Command, args []string) error {
		workflowPath, _ := cmd.Flags().GetString("workflow")
		nodeNames, _ := cmd.Flags().GetStringArray("node")
		regex, _ := cmd.Flags().GetString("regex")
		rawArgs, _ := cmd.Flags().GetStringArray("arg")
		format, _ := cmd.Flags().GetString("output")

		wf, err := loadWorkflowFile(workflowPath)
		if err != nil {
			return err
		}
		targets, err := resolveNodes(wf, nodeNames, regex)
		if err != nil {
			return err
		}
		argMap, err := parseArgMap(rawArgs)
		if err != nil {
			return err
		}

		p := planner.New(wf)
		result, err := p.Plan(targets, argMap)
		if err != nil {
			return err
		}
		return writeFormatted(format, result)
	},
}

func init() {
	planCmd.Flags().String("workflow", "./.workflow.yaml", "The workflow file to use.")
	planCmd.Flags().StringArrayP("node", "n", nil, "Adds a node to the plan.")
	planCmd.Flags().StringP("regex", "r", "", "Selects nodes by regex instead of by name.")
	planCmd.MarkFlagsMutuallyExclusive("node", "regex")
	planCmd.MarkFlagsOneRequired("node", "regex")
	planCmd.Flags().StringArrayP("arg", "a", nil, "Specifies a value for handlebars placeholders.")
	planCmd.Flags().StringP("output", "o", planfmt.OutputFormats[0], "The output format.")
}
