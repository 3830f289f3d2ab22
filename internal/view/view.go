// Package view generates a human-browsable projection of the data space: a
// nested directory tree of parameter keys and values, with symlinks to the
// job workspaces at the leaves. Views are derived and never authoritative;
// they are entirely decoupled from scheduling.
package view

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mhutchins/flowspace/internal/document"
	"github.com/mhutchins/flowspace/internal/job"
	"github.com/mhutchins/flowspace/internal/space"
)

// Generate builds a view under dest. Only parameters that actually vary
// across jobs become path segments; constant parameters carry no browsing
// value. Each leaf directory contains a "job" symlink to the workspace.
// An existing view at dest is replaced.
func Generate(s *space.Space, dest string) error {
	jobs, err := s.Jobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	keys, err := varyingKeys(s)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clearing view dir: %w", err)
	}

	for _, j := range jobs {
		leaf := dest
		sp := document.Document(j.StatePoint())
		for _, key := range keys {
			v, ok := sp.Get(key)
			if !ok {
				continue
			}
			leaf = filepath.Join(leaf, key, renderValue(v))
		}
		if err := linkJob(leaf, j); err != nil {
			return err
		}
	}
	return nil
}

// varyingKeys returns the schema keys whose values differ between jobs,
// sorted for deterministic view layout.
func varyingKeys(s *space.Space) ([]string, error) {
	jobs, err := s.Jobs()
	if err != nil {
		return nil, err
	}
	schema, err := s.DetectSchema()
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, key := range schema.Keys() {
		seen := make(map[string]bool)
		for _, j := range jobs {
			v, ok := document.Document(j.StatePoint()).Get(key)
			if !ok {
				seen["<absent>"] = true
				continue
			}
			seen[renderValue(v)] = true
		}
		if len(seen) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func linkJob(leaf string, j *job.Job) error {
	if err := os.MkdirAll(leaf, 0755); err != nil {
		return fmt.Errorf("creating view path: %w", err)
	}
	link := filepath.Join(leaf, "job")
	target, err := filepath.Rel(leaf, j.Dir())
	if err != nil {
		target = j.Dir()
	}
	err = os.Symlink(target, link)
	if os.IsExist(err) {
		// Distinct jobs can render to the same leaf (e.g. "1" vs 1, or a
		// job missing a varying key). Keep both by suffixing the identity.
		err = os.Symlink(target, link+"-"+string(j.ID())[:8])
	}
	if err != nil {
		return fmt.Errorf("linking %s: %w", j.ID(), err)
	}
	return nil
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}
