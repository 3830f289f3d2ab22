package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/mhutchins/flowspace/internal/util"
)

// ErrCorrupt indicates a persisted document that exists but cannot be
// parsed. This is an integrity failure: it always propagates, and the store
// never silently resets the file.
var ErrCorrupt = errors.New("corrupt document")

// Store persists one Document at a fixed path. Reads tolerate a missing
// file (an uninitialized document is empty). Mutations take a cross-process
// file lock for the duration of a single read-modify-write transaction and
// commit via temp-file rename, so no reader ever observes a half-written
// document and concurrent writers never interleave partial writes.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a store for the document at path. The lock file lives
// next to the document.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the document file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the document file has been materialized on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read loads the current document. A missing file yields an empty document;
// unparseable content yields ErrCorrupt.
func (s *Store) Read() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("reading document %s: %w", s.path, err)
	}
	return decode(s.path, data)
}

// Mutate applies fn to the current document and commits the result
// atomically. The whole read-modify-write runs under an exclusive
// cross-process lock, serializing document mutation per store. If fn
// returns an error nothing is written.
func (s *Store) Mutate(fn func(Document) error) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking document %s: %w", s.path, err)
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.Read()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := util.AtomicWriteJSON(s.path, doc); err != nil {
		return fmt.Errorf("writing document %s: %w", s.path, err)
	}
	return nil
}

// Write replaces the document wholesale under the same locking and
// atomic-commit discipline as Mutate.
func (s *Store) Write(doc Document) error {
	return s.Mutate(func(cur Document) error {
		for k := range cur {
			delete(cur, k)
		}
		for k, v := range doc {
			cur[k] = v
		}
		return nil
	})
}

// decode parses document bytes with UseNumber so numeric values round-trip
// without float conversion loss.
func decode(path string, data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return doc, nil
}

// Decode parses raw JSON bytes into a Document. Exposed for callers that
// load document-shaped files outside a Store (e.g. state point files).
func Decode(path string, data []byte) (Document, error) {
	return decode(path, data)
}
