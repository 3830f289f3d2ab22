package job

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mhutchins/flowspace/internal/document"
)

func TestOpenIsIdempotent(t *testing.T) {
	ws := t.TempDir()
	a, err := Open(ws, map[string]interface{}{"v": 6, "theta": 0.4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, err := Open(ws, map[string]interface{}{"theta": 0.4, "v": 6.0})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.ID() != b.ID() {
		t.Errorf("value-equal params resolved to different identities: %s vs %s", a.ID(), b.ID())
	}
	if a.Dir() != b.Dir() {
		t.Errorf("value-equal params resolved to different storage: %s vs %s", a.Dir(), b.Dir())
	}
}

func TestOpenDoesNotTouchDisk(t *testing.T) {
	ws := t.TempDir()
	j, err := Open(ws, map[string]interface{}{"v": 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := os.Stat(j.Dir()); !os.IsNotExist(err) {
		t.Error("Open created the workspace directory; only Init may do that")
	}
}

func TestInitIsIdempotent(t *testing.T) {
	ws := t.TempDir()
	j, err := Open(ws, map[string]interface{}{"v": 6})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Write some state, then Init again: nothing may be lost.
	if err := j.MutateDoc(func(d document.Document) error {
		d.Set("progress", 0.5)
		return nil
	}); err != nil {
		t.Fatalf("MutateDoc: %v", err)
	}
	if err := os.WriteFile(j.FilePath("out.dat"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := j.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	doc, err := j.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if f, ok := doc.Float("progress"); !ok || f != 0.5 {
		t.Errorf("document content lost after re-Init: %v, %v", f, ok)
	}
	if !j.HasFile("out.dat") {
		t.Error("workspace file lost after re-Init")
	}
}

func TestLoadVerifiesIdentity(t *testing.T) {
	ws := t.TempDir()
	j, _ := Open(ws, map[string]interface{}{"v": 6})
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	loaded, err := Load(ws, j.ID())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := document.Document(loaded.StatePoint()).Int("v"); !ok || v != 6 {
		t.Errorf("loaded state point v = %v, %v", v, ok)
	}

	// Tamper with the stored state point: Load must flag the mismatch.
	spPath := filepath.Join(j.Dir(), StatePointFile)
	if err := os.WriteFile(spPath, []byte(`{"v": 7}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(ws, j.ID()); !errors.Is(err, ErrIdentityCollision) {
		t.Errorf("Load of tampered job = %v, want ErrIdentityCollision", err)
	}
}

func TestLoadAfterInitKeepsHugeIntegerIdentity(t *testing.T) {
	// Values above MaxInt64 are persisted with exact digits and come back
	// as json.Number; the reloaded state point must rehash to the same
	// directory name or the whole space becomes unreadable.
	ws := t.TempDir()
	j, err := Open(ws, map[string]interface{}{"v": uint64(math.MaxUint64)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	loaded, err := Load(ws, j.ID())
	if err != nil {
		t.Fatalf("Load after Init: %v", err)
	}
	if loaded.ID() != j.ID() {
		t.Errorf("reloaded identity %s, want %s", loaded.ID(), j.ID())
	}
}

func TestOpenDetectsCollision(t *testing.T) {
	ws := t.TempDir()
	j, _ := Open(ws, map[string]interface{}{"v": 6})
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Forge a directory whose stored state point differs from the request.
	spPath := filepath.Join(j.Dir(), StatePointFile)
	if err := os.WriteFile(spPath, []byte(`{"v": 7}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ws, map[string]interface{}{"v": 6}); !errors.Is(err, ErrIdentityCollision) {
		t.Errorf("Open = %v, want ErrIdentityCollision", err)
	}
}

func TestMigrateRelocatesWorkspace(t *testing.T) {
	ws := t.TempDir()
	j, _ := Open(ws, map[string]interface{}{"v": 6, "theta": 0.4})
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.WriteFile(j.FilePath("traj.dat"), []byte("xyz"), 0644); err != nil {
		t.Fatal(err)
	}
	oldDir := j.Dir()

	migrated, err := j.Migrate(map[string]interface{}{"v": 6, "theta": 0.5})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if migrated.ID() == j.ID() {
		t.Error("migration to different params kept the same identity")
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old workspace directory still exists after migration")
	}
	if !migrated.HasFile("traj.dat") {
		t.Error("workspace contents were not relocated")
	}
	sp := migrated.StatePoint()
	if f, ok := document.Document(sp).Float("theta"); !ok || f != 0.5 {
		t.Errorf("migrated state point theta = %v, %v", f, ok)
	}

	// The relocated state point file must hash back to the new directory.
	if _, err := Load(ws, migrated.ID()); err != nil {
		t.Errorf("Load after migrate: %v", err)
	}
}

func TestMigrateCollisionLeavesBothUntouched(t *testing.T) {
	ws := t.TempDir()
	a, _ := Open(ws, map[string]interface{}{"v": 6, "theta": 0.4})
	b, _ := Open(ws, map[string]interface{}{"v": 6, "theta": 0.7})
	for _, j := range []*Job{a, b} {
		if err := j.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}
	}
	if err := os.WriteFile(a.FilePath("a.dat"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := a.Migrate(map[string]interface{}{"v": 6, "theta": 0.7})
	if !errors.Is(err, ErrIdentityCollision) {
		t.Fatalf("Migrate = %v, want ErrIdentityCollision", err)
	}

	// Both originals intact.
	if !a.Initialized() || !a.HasFile("a.dat") {
		t.Error("source job was disturbed by failed migration")
	}
	if !b.Initialized() {
		t.Error("target job was disturbed by failed migration")
	}
}

func TestRemove(t *testing.T) {
	ws := t.TempDir()
	j, _ := Open(ws, map[string]interface{}{"v": 1})
	if err := j.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := j.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(j.Dir()); !os.IsNotExist(err) {
		t.Error("workspace directory survived Remove")
	}
	// Removing again is a no-op.
	if err := j.Remove(); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}
