package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/style"
	"github.com/mhutchins/flowspace/internal/submit"
)

var (
	submitOps   []string
	submitJobID string
)

var submitCmd = &cobra.Command{
	Use:     "submit",
	GroupID: GroupFlow,
	Short:   "Hand eligible operations to the batch scheduler",
	Long: `Collect every eligible (job, operation) pair, write a batch script,
and hand it to the configured scheduler command (see [submit] in
.flowspace/project.toml). Submission is fire-and-forget: completion is
observed later through post-conditions, never tracked by the engine.

With no scheduler command configured the script is only written, which
makes dry runs cheap.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringArrayVarP(&submitOps, "operation", "o", nil, "Restrict to the named operations (repeatable)")
	submitCmd.Flags().StringVarP(&submitJobID, "job", "j", "", "Restrict to one job (identity or unique prefix)")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	cfg := e.Space().Config()
	backend := &submit.ScriptBackend{
		Dir:     filepath.Join(e.Space().Root(), cfg.Submit.Dir),
		Command: cfg.Submit.Command,
		Root:    e.Space().Root(),
	}

	n, err := e.Submit(cmd.Context(), backend, engine.Selection{Ops: submitOps, JobID: submitJobID})
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("%s Nothing eligible to submit\n", style.ArrowPrefix)
		return nil
	}
	fmt.Printf("%s Submitted %d operation(s)\n", style.SuccessPrefix, n)
	return nil
}
