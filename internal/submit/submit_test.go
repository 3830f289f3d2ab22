package submit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhutchins/flowspace/internal/engine"
)

func TestScriptBackendWritesScript(t *testing.T) {
	dir := t.TempDir()
	b := &ScriptBackend{Dir: dir, Root: "/proj"}

	units := []engine.WorkUnit{
		{JobID: "aaaa", Operation: "simulate", Dir: "/ws/aaaa", Directive: "./simulate.sh"},
		{JobID: "bbbb", Operation: "simulate", Dir: "/ws/bbbb", Directive: "./simulate.sh"},
	}
	batchID, err := b.Submit(context.Background(), units)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if batchID == "" {
		t.Fatal("empty batch id")
	}

	data, err := os.ReadFile(filepath.Join(dir, batchID+".sh"))
	if err != nil {
		t.Fatalf("reading script: %v", err)
	}
	script := string(data)
	if !strings.HasPrefix(script, "#!/bin/sh") {
		t.Error("script missing shebang")
	}
	for _, want := range []string{"aaaa", "bbbb", "./simulate.sh", "simulate", `FLOWSPACE_PROJECT_ROOT="/proj"`} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}
}

func TestScriptBackendRunsCommand(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "submitted")

	// Stand-in scheduler: records that it was invoked with the script.
	sched := filepath.Join(dir, "sched.sh")
	if err := os.WriteFile(sched, []byte("#!/bin/sh\ncp \"$1\" "+marker+"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	b := &ScriptBackend{Dir: dir, Command: sched}
	if _, err := b.Submit(context.Background(), []engine.WorkUnit{
		{JobID: "cccc", Operation: "op", Dir: dir, Directive: "true"},
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("submission command was not invoked")
	}
}

func TestScriptBackendCommandFailure(t *testing.T) {
	b := &ScriptBackend{Dir: t.TempDir(), Command: "/nonexistent/scheduler"}
	if _, err := b.Submit(context.Background(), []engine.WorkUnit{
		{JobID: "dddd", Operation: "op", Dir: "/tmp", Directive: "true"},
	}); err == nil {
		t.Error("unreachable submission command did not fail")
	}
}
