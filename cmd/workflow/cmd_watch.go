package main

import (
	"context"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/replicadse/workflow/internal/errs"
	execengine "github.com/replicadse/workflow/internal/exec"
	"github.com/replicadse/workflow/internal/planner"
	"github.com/replicadse/workflow/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Execute watch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireExperimental("watch"); err != nil {
			return err
		}

		workflowPath, _ := cmd.Flags().GetString("workflow")
		watchName, _ := cmd.Flags().GetString("watch")
		root, _ := cmd.Flags().GetString("root")
		rawArgs, _ := cmd.Flags().GetStringArray("arg")
		workers, _ := cmd.Flags().GetInt("workers")
		prefix, _ := cmd.Flags().GetString("prefix")

		wf, err := loadWorkflowFile(workflowPath)
		if err != nil {
			return err
		}
		entry, ok := wf.Watch[watchName]
		if !ok {
			return errs.NotFound(watchName)
		}
		baseArgs, err := parseArgMap(rawArgs)
		if err != nil {
			return err
		}

		var filter *regexp.Regexp
		if entry.Filter != "" {
			filter, err = regexp.Compile(entry.Filter)
			if err != nil {
				return errs.Wrap(errs.KindRegex, err, "")
			}
		}
		queue := watch.QueueSingleFlight
		if entry.Queue {
			queue = watch.QueueBuffered
		}

		p := planner.New(wf)
		targets := map[string]struct{}{entry.Exec.Node: {}}

		handler := func(ctx context.Context, ev watch.Event, reserved map[string]string) error {
			merged := make(map[string]string, len(baseArgs)+len(reserved))
			for k, v := range baseArgs {
				merged[k] = v
			}
			for k, v := range reserved {
				merged[k] = v
			}

			result, err := p.Plan(targets, merged)
			if err != nil {
				return err
			}
			engine := execengine.New(execengine.OutputMode{Stdout: true, Stderr: true}, prefix, log)
			return engine.Execute(ctx, result, workers)
		}

		driver := watch.New(root, filter, queue, handler, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return driver.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().String("workflow", "./.workflow.yaml", "The workflow file to use.")
	watchCmd.Flags().StringP("watch", "w", "", "The named watch entry to run.")
	_ = watchCmd.MarkFlagRequired("watch")
	watchCmd.Flags().StringP("root", "r", "./", "The directory to watch.")
	watchCmd.Flags().StringArrayP("arg", "a", nil, "Specifies a value for handlebars placeholders.")
	watchCmd.Flags().Int("workers", 1, "Defines how many worker goroutines run concurrently per stage.")
	watchCmd.Flags().String("prefix", "",
		"Tags every line of task output with this prefix instead of passing the streams through raw.")
}
