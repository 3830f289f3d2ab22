// Package submit implements the submission collaborator: it turns a batch
// of eligible work units into a cluster submission. The engine hands work
// off and forgets; completion is observed later through post-condition
// evaluation, never via callbacks.
package submit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/workflow"
)

// ScriptBackend writes one executable batch script per submission and,
// when a submit command is configured (sbatch, qsub, ...), invokes it with
// the script path. With no command configured the script is only written,
// which doubles as a dry run.
type ScriptBackend struct {
	// Dir is where batch scripts are written.
	Dir string
	// Command is the scheduler submission command. Empty means write-only.
	Command string
	// Root, when set, is exported as FLOWSPACE_PROJECT_ROOT so directive
	// commands find the project from inside scheduler-chosen directories.
	Root string
}

// Submit implements engine.SubmitBackend.
func (b *ScriptBackend) Submit(ctx context.Context, units []engine.WorkUnit) (string, error) {
	batchID := uuid.NewString()
	script := b.render(batchID, units)

	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating submit dir: %w", err)
	}
	path := filepath.Join(b.Dir, batchID+".sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil { //nolint:gosec // G306: batch scripts must be executable
		return "", fmt.Errorf("writing batch script: %w", err)
	}

	if b.Command != "" {
		cmd := exec.CommandContext(ctx, b.Command, path)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("running %s: %w: %s", b.Command, err, strings.TrimSpace(string(out)))
		}
	}
	return batchID, nil
}

// render produces the batch script: one invocation line per work unit,
// each run from the unit's workspace directory.
func (b *ScriptBackend) render(batchID string, units []engine.WorkUnit) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("# flowspace batch " + batchID + "\n")
	sb.WriteString("set -e\n")
	if b.Root != "" {
		sb.WriteString(fmt.Sprintf("export %s=%q\n", workflow.EnvProjectRoot, b.Root))
	}
	for _, u := range units {
		sb.WriteString(fmt.Sprintf("\n# %s on job %s\n", u.Operation, u.JobID))
		sb.WriteString(fmt.Sprintf("(cd %q && %s)\n", u.Dir, u.Directive))
	}
	return sb.String()
}
