package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams(`{"v": 6, "theta": 0.4, "tag": "a"}`)
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	// Numbers stay as json.Number so 1 and 1.0 hash identically later.
	if _, ok := params["v"].(json.Number); !ok {
		t.Errorf("v parsed as %T, want json.Number", params["v"])
	}
	if params["tag"] != "a" {
		t.Errorf("tag = %v", params["tag"])
	}
}

func TestParseParamsRejectsNonObject(t *testing.T) {
	for _, arg := range []string{`[1, 2]`, `"str"`, `not json`} {
		if _, err := parseParams(arg); err == nil {
			t.Errorf("parseParams(%q) accepted a non-object", arg)
		}
	}
}

func TestParseValue(t *testing.T) {
	if v := parseValue("true"); v != true {
		t.Errorf("true parsed as %v (%T)", v, v)
	}
	if v := parseValue("3.5"); v != json.Number("3.5") {
		t.Errorf("3.5 parsed as %v (%T)", v, v)
	}
	// Bare words fall back to plain strings.
	if v := parseValue("hello"); v != "hello" {
		t.Errorf("hello parsed as %v (%T)", v, v)
	}
	if v := parseValue(`{"a": 1}`); v == nil {
		t.Error("object literal parsed as nil")
	}
}

func TestExitStatusError(t *testing.T) {
	if got := exitStatus(3).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}

	// The status must survive wrapping so RunE helpers can add context.
	wrapped := fmt.Errorf("context: %w", exitStatus(130))
	var status *exitStatusError
	if !errors.As(wrapped, &status) || status.code != 130 {
		t.Errorf("wrapped status = %v", status)
	}

	// Ordinary errors carry no status.
	status = nil
	if errors.As(errors.New("plain"), &status) {
		t.Error("plain error matched exitStatusError")
	}
}
