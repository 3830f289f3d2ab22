// Package job implements the job handle: one unit of the data space, made
// of an immutable state point, a content-addressed identity, a mutable
// document, and an on-disk workspace directory named by the identity.
package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mhutchins/flowspace/internal/document"
	"github.com/mhutchins/flowspace/internal/statepoint"
	"github.com/mhutchins/flowspace/internal/util"
)

// Files kept inside every job workspace directory.
const (
	// StatePointFile holds the job's immutable parameter mapping.
	StatePointFile = "statepoint.json"
	// DocumentFile holds the job's mutable document.
	DocumentFile = "document.json"
)

var (
	// ErrIdentityCollision indicates two distinct parameter mappings
	// resolving to the same identity, or a migration target already owned
	// by a different job. This is a fatal integrity error: it always
	// propagates and is never silently merged.
	ErrIdentityCollision = errors.New("job identity collision")

	// ErrMissingStatePoint indicates a job directory without a readable
	// state point file.
	ErrMissingStatePoint = errors.New("missing state point file")
)

// Job is a handle to one job's storage. Opening a job never touches the
// disk; Init materializes the workspace directory and the initial empty
// document.
type Job struct {
	id         statepoint.ID
	statePoint map[string]interface{}
	dir        string
	doc        *document.Store
}

// Open resolves params to a job handle under workspaceDir. Repeated calls
// with value-equal params return handles describing the same storage. If a
// state point file already exists for the identity but is not value-equal
// to params, Open fails with ErrIdentityCollision.
func Open(workspaceDir string, params map[string]interface{}) (*Job, error) {
	canonical, err := statepoint.Canonicalize(params)
	if err != nil {
		return nil, err
	}
	id := canonical.Hash()
	j := handle(workspaceDir, id, params)

	stored, err := j.storedStatePoint()
	if err != nil {
		if errors.Is(err, ErrMissingStatePoint) {
			return j, nil
		}
		return nil, err
	}
	if !statepoint.Equal(params, stored) {
		return nil, fmt.Errorf("%w: directory %s holds a different state point", ErrIdentityCollision, id)
	}
	return j, nil
}

// Load opens the job stored under workspaceDir/<id> by reading its state
// point file. It verifies that the stored parameters actually hash to the
// directory name; a mismatch is a fatal integrity error.
func Load(workspaceDir string, id statepoint.ID) (*Job, error) {
	j := handle(workspaceDir, id, nil)
	stored, err := j.storedStatePoint()
	if err != nil {
		return nil, err
	}
	rehash, err := statepoint.HashOf(stored)
	if err != nil {
		return nil, fmt.Errorf("state point for %s: %w", id, err)
	}
	if rehash != id {
		return nil, fmt.Errorf("%w: directory %s holds state point hashing to %s", ErrIdentityCollision, id, rehash)
	}
	j.statePoint = stored
	return j, nil
}

func handle(workspaceDir string, id statepoint.ID, params map[string]interface{}) *Job {
	dir := filepath.Join(workspaceDir, string(id))
	return &Job{
		id:         id,
		statePoint: params,
		dir:        dir,
		doc:        document.NewStore(filepath.Join(dir, DocumentFile)),
	}
}

// ID returns the job's identity hash.
func (j *Job) ID() statepoint.ID {
	return j.id
}

// StatePoint returns a copy of the job's parameter mapping. The state
// point is logically immutable; changing parameters goes through Migrate.
func (j *Job) StatePoint() map[string]interface{} {
	return document.Document(j.statePoint).Clone()
}

// Dir returns the workspace directory path.
func (j *Job) Dir() string {
	return j.dir
}

// Initialized reports whether the workspace directory and state point file
// have been materialized.
func (j *Job) Initialized() bool {
	_, err := os.Stat(filepath.Join(j.dir, StatePointFile))
	return err == nil
}

// Init materializes the workspace directory, the state point file, and an
// empty document if absent. Calling Init on an already-initialized job is
// a no-op: never an error, never data loss.
func (j *Job) Init() error {
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return fmt.Errorf("creating workspace dir: %w", err)
	}
	spPath := filepath.Join(j.dir, StatePointFile)
	if _, err := os.Stat(spPath); os.IsNotExist(err) {
		if j.statePoint == nil {
			return fmt.Errorf("%w: %s", ErrMissingStatePoint, j.id)
		}
		if err := util.AtomicWriteJSON(spPath, j.statePoint); err != nil {
			return fmt.Errorf("writing state point: %w", err)
		}
	}
	if !j.doc.Exists() {
		if err := util.AtomicWriteJSON(j.doc.Path(), document.Document{}); err != nil {
			return fmt.Errorf("writing initial document: %w", err)
		}
	}
	return nil
}

// Document reads the job's current document. Missing documents read as
// empty; corrupt documents propagate as integrity errors.
func (j *Job) Document() (document.Document, error) {
	return j.doc.Read()
}

// MutateDoc applies fn to the document under the per-job exclusive lock
// and commits atomically.
func (j *Job) MutateDoc(fn func(document.Document) error) error {
	return j.doc.Mutate(fn)
}

// FilePath returns the path of a named file inside the workspace.
func (j *Job) FilePath(name string) string {
	return filepath.Join(j.dir, name)
}

// HasFile reports whether a named file exists inside the workspace.
func (j *Job) HasFile(name string) bool {
	_, err := os.Stat(j.FilePath(name))
	return err == nil
}

// Migrate recomputes the identity for newParams and relocates the
// workspace directory. It fails with ErrIdentityCollision if the target
// identity already exists for a different job, leaving both jobs
// untouched. The returned handle points at the new storage.
func (j *Job) Migrate(newParams map[string]interface{}) (*Job, error) {
	canonical, err := statepoint.Canonicalize(newParams)
	if err != nil {
		return nil, err
	}
	newID := canonical.Hash()
	if newID == j.id {
		j.statePoint = document.Document(newParams).Clone()
		return j, nil
	}

	workspaceDir := filepath.Dir(j.dir)
	target := handle(workspaceDir, newID, newParams)
	if _, err := os.Stat(target.dir); err == nil {
		return nil, fmt.Errorf("%w: migration target %s already exists", ErrIdentityCollision, newID)
	}

	if j.Initialized() {
		if err := os.Rename(j.dir, target.dir); err != nil {
			return nil, fmt.Errorf("relocating workspace: %w", err)
		}
		spPath := filepath.Join(target.dir, StatePointFile)
		if err := util.AtomicWriteJSON(spPath, newParams); err != nil {
			// Roll the directory back so the original job stays intact.
			_ = os.Rename(target.dir, j.dir)
			return nil, fmt.Errorf("rewriting state point: %w", err)
		}
	}
	return target, nil
}

// Remove deletes the job's workspace directory and everything in it.
// Removing a never-initialized job is a no-op.
func (j *Job) Remove() error {
	if err := os.RemoveAll(j.dir); err != nil {
		return fmt.Errorf("removing workspace: %w", err)
	}
	return nil
}

// storedStatePoint reads the persisted state point file.
func (j *Job) storedStatePoint() (map[string]interface{}, error) {
	path := filepath.Join(j.dir, StatePointFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingStatePoint, j.id)
		}
		return nil, fmt.Errorf("reading state point: %w", err)
	}
	doc, err := document.Decode(path, data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
