// Package space implements the data space: the set of all jobs under a
// project root, plus the project-level document. The root is identified by
// a marker config file, found by walking up from the working directory the
// same way the CLI locates it.
package space

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mhutchins/flowspace/internal/document"
	"github.com/mhutchins/flowspace/internal/job"
	"github.com/mhutchins/flowspace/internal/statepoint"
)

// Marker layout under the project root.
const (
	// ConfigDir holds project metadata, the project document, logs, and
	// generated submission scripts.
	ConfigDir = ".flowspace"

	// ConfigFile is the marker identifying a project root.
	ConfigFile = "project.toml"

	// ProjectDocFile is the project-level document.
	ProjectDocFile = "project_doc.json"

	// DefaultWorkspace is the default job workspace directory name.
	DefaultWorkspace = "workspace"
)

var (
	// ErrProjectNotInitialized indicates the root path lacks the marker
	// config.
	ErrProjectNotInitialized = errors.New("not a flowspace project (run 'fsp init')")

	// ErrJobNotFound indicates a lookup by identity with no corresponding
	// job directory.
	ErrJobNotFound = errors.New("job not found")
)

// Space is a handle to one project's data space.
type Space struct {
	root string
	cfg  Config
	doc  *document.Store
}

// Init creates the project marker at root and returns the opened space.
// Initializing an existing project is a no-op apart from re-reading its
// config.
func Init(root, name string) (*Space, error) {
	cfgDir := filepath.Join(root, ConfigDir)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", ConfigDir, err)
	}
	cfgPath := filepath.Join(cfgDir, ConfigFile)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if name == "" {
			name = filepath.Base(absOrSelf(root))
		}
		cfg := Config{Name: name, Workspace: DefaultWorkspace}
		if err := SaveConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	}
	return Open(root)
}

// Open opens the project rooted exactly at root. Fails with
// ErrProjectNotInitialized if the marker config is missing.
func Open(root string) (*Space, error) {
	cfgPath := filepath.Join(root, ConfigDir, ConfigFile)
	if _, err := os.Stat(cfgPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotInitialized, root)
		}
		return nil, fmt.Errorf("checking project marker: %w", err)
	}
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return &Space{
		root: root,
		cfg:  cfg,
		doc:  document.NewStore(filepath.Join(root, ConfigDir, ProjectDocFile)),
	}, nil
}

// Find locates the project root by walking up from startDir, looking for
// the marker config. Returns ErrProjectNotInitialized when no ancestor is
// a project root.
func Find(startDir string) (string, error) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		marker := filepath.Join(current, ConfigDir, ConfigFile)
		if _, err := os.Stat(marker); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("%w: no project above %s", ErrProjectNotInitialized, startDir)
		}
		current = parent
	}
}

// FindAndOpen locates and opens the project containing startDir.
func FindAndOpen(startDir string) (*Space, error) {
	root, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	return Open(root)
}

// Root returns the project root path.
func (s *Space) Root() string {
	return s.root
}

// Name returns the project name from the marker config.
func (s *Space) Name() string {
	return s.cfg.Name
}

// Config returns the project configuration.
func (s *Space) Config() Config {
	return s.cfg
}

// WorkspaceDir returns the absolute path of the job workspace directory.
func (s *Space) WorkspaceDir() string {
	return filepath.Join(s.root, s.cfg.Workspace)
}

// Doc returns the project-level document store. It follows the same
// atomic-commit and locking contract as job documents.
func (s *Space) Doc() *document.Store {
	return s.doc
}

// OpenJob resolves params to a job handle in this space. Idempotent:
// value-equal params always resolve to the same identity and storage.
// The workspace directory is not created until Job.Init.
func (s *Space) OpenJob(params map[string]interface{}) (*job.Job, error) {
	return job.Open(s.WorkspaceDir(), params)
}

// JobByID opens the job with the given identity, or a unique identity
// prefix of at least 4 characters. Fails with ErrJobNotFound when no job
// directory matches, and reports ambiguous prefixes.
func (s *Space) JobByID(id string) (*job.Job, error) {
	if statepoint.IsValidID(id) {
		j, err := job.Load(s.WorkspaceDir(), statepoint.ID(id))
		if err != nil {
			if errors.Is(err, job.ErrMissingStatePoint) {
				return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
			}
			return nil, err
		}
		return j, nil
	}
	if len(id) < 4 {
		return nil, fmt.Errorf("%w: %q (identity prefixes need at least 4 characters)", ErrJobNotFound, id)
	}
	ids, err := s.jobIDs()
	if err != nil {
		return nil, err
	}
	var matches []statepoint.ID
	for _, candidate := range ids {
		if strings.HasPrefix(string(candidate), id) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	case 1:
		return job.Load(s.WorkspaceDir(), matches[0])
	default:
		return nil, fmt.Errorf("ambiguous job id %q matches %d jobs", id, len(matches))
	}
}

// Jobs enumerates all initialized jobs, sorted by identity for
// deterministic iteration order. Each call re-reads the workspace
// directory, so the result always reflects current on-disk state rather
// than a frozen snapshot. Directories whose stored state point does not
// hash back to their name are integrity errors and propagate.
func (s *Space) Jobs() ([]*job.Job, error) {
	ids, err := s.jobIDs()
	if err != nil {
		return nil, err
	}
	jobs := make([]*job.Job, 0, len(ids))
	for _, id := range ids {
		j, err := job.Load(s.WorkspaceDir(), id)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// FindJobs returns the jobs whose state point is a superset match of
// filter: every filter key must be present with a value-equal value.
// Nested mappings in the filter match partially as well.
func (s *Space) FindJobs(filter map[string]interface{}) ([]*job.Job, error) {
	jobs, err := s.Jobs()
	if err != nil {
		return nil, err
	}
	var matched []*job.Job
	for _, j := range jobs {
		if supersetMatch(j.StatePoint(), filter) {
			matched = append(matched, j)
		}
	}
	return matched, nil
}

// NumJobs counts the job directories in the workspace.
func (s *Space) NumJobs() (int, error) {
	ids, err := s.jobIDs()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// jobIDs lists identity-named directories in the workspace, sorted.
// Entries that do not look like identities are ignored (users may park
// other files next to job directories).
func (s *Space) jobIDs() ([]statepoint.ID, error) {
	entries, err := os.ReadDir(s.WorkspaceDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading workspace: %w", err)
	}
	var ids []statepoint.ID
	for _, e := range entries {
		if !e.IsDir() || !statepoint.IsValidID(e.Name()) {
			continue
		}
		ids = append(ids, statepoint.ID(e.Name()))
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i] < ids[k] })
	return ids, nil
}

// supersetMatch reports whether sp contains every key of filter with a
// value-equal value.
func supersetMatch(sp, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := sp[k]
		if !ok {
			return false
		}
		wantMap, wantIsMap := want.(map[string]interface{})
		gotMap, gotIsMap := got.(map[string]interface{})
		if wantIsMap && gotIsMap {
			if !supersetMatch(gotMap, wantMap) {
				return false
			}
			continue
		}
		if !statepoint.EqualValue(got, want) {
			return false
		}
	}
	return true
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
