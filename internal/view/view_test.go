package view

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mhutchins/flowspace/internal/space"
)

func TestGenerateLinksVaryingKeysOnly(t *testing.T) {
	s, err := space.Init(t.TempDir(), "view-test")
	if err != nil {
		t.Fatalf("space.Init: %v", err)
	}
	for _, theta := range []float64{0.4, 0.7} {
		j, err := s.OpenJob(map[string]interface{}{"v": 6, "theta": theta})
		if err != nil {
			t.Fatalf("OpenJob: %v", err)
		}
		if err := j.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}
	}

	dest := filepath.Join(s.Root(), "view")
	if err := Generate(s, dest); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// v is constant across jobs and must not appear in the tree.
	if _, err := os.Stat(filepath.Join(dest, "v")); !os.IsNotExist(err) {
		t.Error("constant key v appeared in the view")
	}

	for _, theta := range []string{"0.4", "0.7"} {
		link := filepath.Join(dest, "theta", theta, "job")
		info, err := os.Lstat(link)
		if err != nil {
			t.Fatalf("missing link for theta=%s: %v", theta, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			t.Errorf("theta=%s: not a symlink", theta)
		}
		// The symlink must resolve to an actual job workspace.
		resolved, err := filepath.EvalSymlinks(link)
		if err != nil {
			t.Errorf("theta=%s: broken link: %v", theta, err)
		}
		if _, err := os.Stat(filepath.Join(resolved, "statepoint.json")); err != nil {
			t.Errorf("theta=%s: link does not point at a job dir", theta)
		}
	}
}

func TestGenerateReplacesExistingView(t *testing.T) {
	s, err := space.Init(t.TempDir(), "view-test")
	if err != nil {
		t.Fatalf("space.Init: %v", err)
	}
	j, _ := s.OpenJob(map[string]interface{}{"k": "a"})
	if err := j.Init(); err != nil {
		t.Fatal(err)
	}
	j2, _ := s.OpenJob(map[string]interface{}{"k": "b"})
	if err := j2.Init(); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(s.Root(), "view")
	if err := Generate(s, dest); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := j2.Remove(); err != nil {
		t.Fatal(err)
	}
	if err := Generate(s, dest); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "k", "b")); !os.IsNotExist(err) {
		t.Error("stale view entry survived regeneration")
	}
}

func TestGenerateKeepsLeafCollisions(t *testing.T) {
	s, err := space.Init(t.TempDir(), "view-test")
	if err != nil {
		t.Fatalf("space.Init: %v", err)
	}
	// "1" and 1 are distinct state points but render to the same path
	// segment, so both jobs land on the same leaf.
	j1, _ := s.OpenJob(map[string]interface{}{"a": "1"})
	if err := j1.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	j2, _ := s.OpenJob(map[string]interface{}{"a": 1})
	if err := j2.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	dest := filepath.Join(s.Root(), "view")
	if err := Generate(s, dest); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("reading view: %v", err)
	}
	links := 0
	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 {
			links++
		}
	}
	if links != 2 {
		t.Errorf("view has %d job links, want 2 (colliding leaf dropped a job)", links)
	}
}

func TestGenerateEmptySpace(t *testing.T) {
	s, err := space.Init(t.TempDir(), "view-test")
	if err != nil {
		t.Fatalf("space.Init: %v", err)
	}
	if err := Generate(s, filepath.Join(s.Root(), "view")); err != nil {
		t.Fatalf("Generate on empty space: %v", err)
	}
}
