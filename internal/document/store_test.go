package document

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestReadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "doc.json"))
	doc, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(doc) != 0 {
		t.Errorf("missing file should read as empty doc, got %v", doc)
	}
}

func TestMutateRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "doc.json"))

	err := s.Mutate(func(d Document) error {
		d.Set("t_max", 0.4776)
		d.Set("steps", 100)
		d.Set("label", "run-1")
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	// Re-open from disk: values survive persistence without loss.
	reopened := NewStore(s.Path())
	doc, err := reopened.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f, ok := doc.Float("t_max"); !ok || f != 0.4776 {
		t.Errorf("t_max = %v, %v", f, ok)
	}
	if i, ok := doc.Int("steps"); !ok || i != 100 {
		t.Errorf("steps = %v, %v", i, ok)
	}
	if v, ok := doc.String("label"); !ok || v != "run-1" {
		t.Errorf("label = %q, %v", v, ok)
	}
}

func TestMutateErrorWritesNothing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "doc.json"))
	if err := s.Mutate(func(d Document) error { d.Set("k", 1); return nil }); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	boom := errors.New("boom")
	err := s.Mutate(func(d Document) error {
		d.Set("k", 2)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Mutate error = %v, want boom", err)
	}

	doc, _ := s.Read()
	if i, _ := doc.Int("k"); i != 1 {
		t.Errorf("failed mutation leaked a write: k = %d", i)
	}
}

func TestCorruptDocumentPropagates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)
	if _, err := s.Read(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Read of corrupt file = %v, want ErrCorrupt", err)
	}
	// Mutate must refuse to clobber a corrupt document.
	err := s.Mutate(func(d Document) error { d.Set("k", 1); return nil })
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Mutate on corrupt file = %v, want ErrCorrupt", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("Mutate overwrote a corrupt document")
	}
}

func TestConcurrentMutatorsDoNotLoseUpdates(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "doc.json"))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Mutate(func(d Document) error {
				cur, _ := d.Int("count")
				d.Set("count", cur+1)
				return nil
			})
			if err != nil {
				t.Errorf("Mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	doc, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if count, _ := doc.Int("count"); count != n {
		t.Errorf("count = %d, want %d (lost updates)", count, n)
	}
}

func TestNumbersDecodeAsJSONNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(`{"big": 9007199254740993}`), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := NewStore(path).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	v, _ := doc.Get("big")
	num, ok := v.(json.Number)
	if !ok {
		t.Fatalf("big decoded as %T, want json.Number", v)
	}
	// 2^53+1 survives: this exact value is unrepresentable as float64.
	if i, _ := doc.Int("big"); i != 9007199254740993 {
		t.Errorf("big = %d (%s), precision lost", i, num)
	}
}
