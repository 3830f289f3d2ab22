package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/style"
)

var (
	runOps      []string
	runJobID    string
	runMaxCount int
	runParallel int
	runProgress bool
)

var runCmd = &cobra.Command{
	Use:     "run",
	GroupID: GroupFlow,
	Short:   "Execute eligible operations until no work remains",
	Long: `Repeatedly find eligible (job, operation) pairs and execute their
actions. Eligibility is re-derived after every batch, so one operation's
committed output can unlock the next within a single run.

A failing action never aborts the batch: remaining pairs keep running
and the failed pair is retried on the next invocation. The exit status
reflects whether any attempted work is still incomplete afterwards.

Examples:
  fsp run
  fsp run -o compute -n 10 --parallel 4
  fsp run -o compute -j 1a2b3c4d -n 1`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runOps, "operation", "o", nil, "Restrict to the named operations (repeatable)")
	runCmd.Flags().StringVarP(&runJobID, "job", "j", "", "Restrict to one job (identity or unique prefix)")
	runCmd.Flags().IntVarP(&runMaxCount, "num", "n", 0, "Stop after this many executions (0 = unlimited)")
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Number of actions to execute concurrently")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "Report each execution as it finishes")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}

	// Interrupt stops dispatching new work; in-flight actions finish so
	// their document commits stay atomic.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := engine.RunOptions{
		Selection: engine.Selection{Ops: runOps, JobID: runJobID},
		MaxCount:  runMaxCount,
		Parallel:  runParallel,
	}
	if runProgress {
		opts.Progress = func(p engine.Pair, err error, executed, failed int) {
			if err != nil {
				fmt.Printf("%s %s/%s: %v\n", style.ErrorPrefix, p.Job.ID(), p.Op.Name, err)
			} else {
				fmt.Printf("%s %s/%s (%d done, %d failed)\n", style.SuccessPrefix, p.Job.ID(), p.Op.Name, executed, failed)
			}
		}
	}

	summary, runErr := e.Run(ctx, opts)

	fmt.Printf("%d executed, %d failed\n", summary.Executed, len(summary.Failures))
	for _, f := range summary.Failures {
		style.PrintError("%s/%s: %v", f.JobID, f.Operation, f.Err)
	}

	if runErr != nil {
		// Interrupted runs exit nonzero; partial progress is already
		// committed and a later invocation resumes.
		style.PrintWarning("run interrupted")
		return exitStatus(130)
	}
	if incompleteFailures(e, summary) {
		return exitStatus(1)
	}
	return nil
}

// incompleteFailures reports whether any failed pair is still not
// complete. A failure whose post-conditions hold anyway (another process
// finished the work, or the action raised after committing its outputs)
// does not fail the run.
func incompleteFailures(e *engine.Engine, summary *engine.RunSummary) bool {
	for _, f := range summary.Failures {
		j, err := e.Space().JobByID(string(f.JobID))
		if err != nil {
			return true
		}
		op, err := e.Registry().Get(f.Operation)
		if err != nil {
			return true
		}
		state, err := e.State(j, op)
		if err != nil || state != engine.Complete {
			return true
		}
	}
	return false
}
