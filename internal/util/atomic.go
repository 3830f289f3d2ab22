// Package util provides common utilities for flowspace.
package util

import (
	"encoding/json"
	"os"
)

// AtomicWriteJSON writes JSON data to a file atomically.
// It first writes to a temporary file, then renames it into place so that
// a crash mid-write never corrupts previously committed state. The rename
// is atomic on POSIX systems.
func AtomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, append(data, '\n'), 0644)
}

// AtomicWriteFile writes data to a file atomically via a temp file and
// rename. Readers never observe a half-written file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile := path + ".tmp"

	if err := os.WriteFile(tmpFile, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, path); err != nil {
		// Clean up temp file on failure
		_ = os.Remove(tmpFile)
		return err
	}

	return nil
}
