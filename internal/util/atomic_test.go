package util

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := AtomicWriteJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("AtomicWriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("output missing trailing newline")
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["a"] != 1 {
		t.Errorf("got %v", got)
	}
}

func TestAtomicWriteJSONOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	for i := 0; i < 3; i++ {
		if err := AtomicWriteJSON(path, map[string]int{"n": i}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	var got map[string]int
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["n"] != 2 {
		t.Errorf("n = %d, want 2", got["n"])
	}
	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestAtomicWriteFileNoPartialReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := AtomicWriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("read %q", data)
	}
}
