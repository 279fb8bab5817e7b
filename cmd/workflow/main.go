// Command workflow is the CLI entrypoint: compile a workflow document into
// an execution plan, execute a plan, or watch a directory for changes that
// re-trigger a node.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.StandardLogger()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.EnableCommandSorting = false
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}
