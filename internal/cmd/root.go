// Package cmd implements the fsp command line interface.
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/space"
	"github.com/mhutchins/flowspace/internal/workflow"
)

// Command groups for help output.
const (
	GroupSpace = "space"
	GroupFlow  = "flow"
)

var rootCmd = &cobra.Command{
	Use:   "fsp",
	Short: "Manage a parameterized data space and its workflow",
	Long: `fsp manages a data space: a collection of jobs, each identified by an
immutable parameter set (state point), each carrying a mutable document
and an on-disk workspace directory.

On top of the data space, a workflow engine schedules named operations,
each guarded by pre-conditions (readiness) and post-conditions
(completion), across all jobs with pending work.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupSpace, Title: "Data space commands:"},
		&cobra.Group{ID: GroupFlow, Title: "Workflow commands:"},
	)
}

// Execute runs the root command and returns the process exit code. An
// exitStatusError resolves to its status silently; anything else prints
// and exits 1.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var status *exitStatusError
	if errors.As(err, &status) {
		return status.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// openSpace locates and opens the project containing the working
// directory. FLOWSPACE_PROJECT_ROOT overrides discovery, which matters for
// operation commands run from inside batch scripts.
func openSpace() (*space.Space, error) {
	if root := os.Getenv(workflow.EnvProjectRoot); root != "" {
		return space.Open(root)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return space.FindAndOpen(cwd)
}

// openEngine opens the project and its workflow definition.
func openEngine() (*engine.Engine, error) {
	s, err := openSpace()
	if err != nil {
		return nil, err
	}
	reg, err := workflow.LoadProject(s.Root())
	if err != nil {
		return nil, err
	}
	return engine.New(s, reg)
}

// parseParams parses a JSON object argument into a parameter mapping,
// keeping numbers as json.Number so 1 and 1.0 canonicalize identically.
func parseParams(arg string) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
	dec.UseNumber()
	var params map[string]interface{}
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("parameters must be a JSON object: %w", err)
	}
	return params, nil
}

// relPath renders path relative to the working directory when possible.
func relPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}
	return rel
}
