// Package document implements the mutable JSON documents attached to jobs
// and to the project root. Documents are plain nested key-value mappings
// persisted as human-diffable JSON; access to nested values goes through
// explicit dotted-path accessors with defined missing-key behavior.
package document

import (
	"encoding/json"
	"strings"
)

// Document is a mutable key-value mapping. Nested mappings are addressed
// with dotted paths ("grid.nx"). Values are JSON kinds: string, bool, nil,
// json.Number (numbers are decoded with UseNumber to avoid precision loss),
// []interface{}, and map[string]interface{}.
type Document map[string]interface{}

// Get returns the value at a dotted path. The second return is false when
// any path segment is missing or a non-mapping is traversed; it is never an
// error to ask for an absent key.
func (d Document) Get(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = map[string]interface{}(d)
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores a value at a dotted path, creating intermediate mappings as
// needed. An intermediate segment holding a non-mapping value is replaced.
func (d Document) Set(path string, value interface{}) {
	parts := strings.Split(path, ".")
	m := map[string]interface{}(d)
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Delete removes the value at a dotted path. Deleting an absent path is a
// no-op.
func (d Document) Delete(path string) {
	parts := strings.Split(path, ".")
	m := map[string]interface{}(d)
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]interface{})
		if !ok {
			return
		}
		m = next
	}
	delete(m, parts[len(parts)-1])
}

// Truthy reports whether the value at path is present and truthy. Missing
// keys, nil, false, zero numbers, and empty strings/sequences/mappings are
// all falsy. This is the policy that lets post-conditions naturally signal
// "not yet produced".
func (d Document) Truthy(path string) bool {
	v, ok := d.Get(path)
	if !ok {
		return false
	}
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// Float returns the value at path coerced to float64.
func (d Document) Float(path string) (float64, bool) {
	v, ok := d.Get(path)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

// Int returns the value at path coerced to int64. Floats with a fractional
// part do not coerce.
func (d Document) Int(path string) (int64, bool) {
	v, ok := d.Get(path)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case json.Number:
		i, err := val.Int64()
		return i, err == nil
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		i := int64(val)
		return i, float64(i) == val
	default:
		return 0, false
	}
}

// String returns the string value at path.
func (d Document) String(path string) (string, bool) {
	v, ok := d.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the boolean value at path.
func (d Document) Bool(path string) (bool, bool) {
	v, ok := d.Get(path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Clone returns a deep copy. Mutating the copy never affects the original.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
