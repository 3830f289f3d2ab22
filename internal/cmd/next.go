package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/engine"
)

var nextCmd = &cobra.Command{
	Use:     "next OPERATION",
	GroupID: GroupFlow,
	Short:   "List jobs eligible for an operation",
	Long: `Print the identity of every job for which the named operation is
currently eligible, one per line. An empty list exits zero, so the
output composes cleanly in shell loops:

  for id in $(fsp next simulate); do ...; done`,
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	pairs, err := e.NextEligible(engine.Selection{Ops: []string{args[0]}})
	if err != nil {
		return err
	}
	for _, p := range pairs {
		fmt.Println(p.Job.ID())
	}
	return nil
}
