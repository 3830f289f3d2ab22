// Package statepoint canonicalizes job parameter mappings and derives the
// content-addressed identity used for job equality and directory naming.
//
// Two parameter mappings that are value-equal (same keys and values, any
// insertion order, numbers compared by canonical representation) always
// produce the same identity. The identity is computed once when a job is
// opened and never mutated in place.
package statepoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// ErrInvalidParameterKind indicates a state point value that is not a
// scalar, mapping, or sequence of such.
var ErrInvalidParameterKind = errors.New("invalid parameter kind")

// IDLength is the length in hex characters of a job identity.
const IDLength = 32

// ID is the fixed-width identity hash of a canonical state point.
type ID string

// IsValidID reports whether s has the shape of a job identity
// (IDLength lowercase hex characters).
func IsValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// CanonicalForm is the deterministic encoding of a state point. Mappings
// are encoded with sorted keys and numbers with a stable rendering, so
// value-equal inputs always canonicalize to identical bytes.
type CanonicalForm struct {
	encoded []byte
}

// Canonicalize normalizes params into its canonical form. Values must be
// scalars (string, bool, nil, integer or float), mappings with string keys,
// or sequences of such; anything else fails with ErrInvalidParameterKind.
func Canonicalize(params map[string]interface{}) (CanonicalForm, error) {
	var buf bytes.Buffer
	if err := encodeMap(&buf, params, ""); err != nil {
		return CanonicalForm{}, err
	}
	return CanonicalForm{encoded: buf.Bytes()}, nil
}

// Hash returns the identity of the canonical form: a sha256 digest of the
// canonical encoding truncated to IDLength hex characters. Byte-identical
// forms always hash identically, which is what allows directory-name-based
// lookup without scanning every job.
func (c CanonicalForm) Hash() ID {
	sum := sha256.Sum256(c.encoded)
	return ID(hex.EncodeToString(sum[:])[:IDLength])
}

// String returns the canonical encoding. Useful for debugging and tests.
func (c CanonicalForm) String() string {
	return string(c.encoded)
}

// Equal reports whether two parameter mappings are value-equal under
// canonicalization. Returns false if either mapping fails to canonicalize.
func Equal(a, b map[string]interface{}) bool {
	ca, err := Canonicalize(a)
	if err != nil {
		return false
	}
	cb, err := Canonicalize(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca.encoded, cb.encoded)
}

// EqualValue reports whether two single values are value-equal under the
// canonical encoding (so 6, 6.0 and json.Number("6") all compare equal).
// Returns false if either value fails to canonicalize.
func EqualValue(a, b interface{}) bool {
	var ba, bb bytes.Buffer
	if err := encodeValue(&ba, a, ""); err != nil {
		return false
	}
	if err := encodeValue(&bb, b, ""); err != nil {
		return false
	}
	return bytes.Equal(ba.Bytes(), bb.Bytes())
}

// HashOf is a convenience for Canonicalize followed by Hash.
func HashOf(params map[string]interface{}) (ID, error) {
	c, err := Canonicalize(params)
	if err != nil {
		return "", err
	}
	return c.Hash(), nil
}

func encodeMap(buf *bytes.Buffer, m map[string]interface{}, path string) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		if err := encodeValue(buf, m[k], childPath(path, k)); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v interface{}, path string) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		buf.WriteString(strconv.Quote(val))
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		encodeFloat(buf, float64(val))
	case float64:
		encodeFloat(buf, val)
	case json.Number:
		return encodeNumber(buf, val, path)
	case map[string]interface{}:
		return encodeMap(buf, val, path)
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return encodeReflected(buf, v, path)
	}
	return nil
}

// encodeFloat renders a float with a stable canonical representation.
// Integral floats collapse to their integer rendering so that 1.0 and 1
// identify the same state point; the collapse spans the whole int64 range
// so value-equal integer and float inputs never diverge.
func encodeFloat(buf *bytes.Buffer, f float64) {
	if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func encodeNumber(buf *bytes.Buffer, n json.Number, path string) error {
	if i, err := n.Int64(); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	// Integer literals above MaxInt64 keep their exact digits. Falling to
	// float here would merge distinct values and, worse, rehash a persisted
	// uint64 state point to a different identity on reload.
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		buf.WriteString(strconv.FormatUint(u, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("%w: unparseable number %q at %s", ErrInvalidParameterKind, n.String(), displayPath(path))
	}
	encodeFloat(buf, f)
	return nil
}

// encodeReflected handles typed slices and string-keyed maps that did not
// match the concrete cases above (e.g. []int, map[string]float64).
func encodeReflected(buf *bytes.Buffer, v interface{}, path string) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map with non-string keys (%T) at %s", ErrInvalidParameterKind, v, displayPath(path))
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return encodeMap(buf, m, path)
	default:
		return fmt.Errorf("%w: %T at %s", ErrInvalidParameterKind, v, displayPath(path))
	}
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
