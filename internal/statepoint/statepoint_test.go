package statepoint

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestHashIgnoresKeyOrder(t *testing.T) {
	// Build two maps with identical content. Go map iteration is already
	// randomized, so the real guarantee under test is the sorted encoding.
	a := map[string]interface{}{"v": 6, "theta": 0.4, "gravity": 9.81}
	b := map[string]interface{}{"gravity": 9.81, "theta": 0.4, "v": 6}

	ha, err := HashOf(a)
	if err != nil {
		t.Fatalf("HashOf(a): %v", err)
	}
	hb, err := HashOf(b)
	if err != nil {
		t.Fatalf("HashOf(b): %v", err)
	}
	if ha != hb {
		t.Errorf("hashes differ for value-equal maps: %s vs %s", ha, hb)
	}
}

func TestHashNumericCanonicalization(t *testing.T) {
	// 6, 6.0, int64(6) and json.Number("6") all identify the same point.
	variants := []map[string]interface{}{
		{"v": 6},
		{"v": 6.0},
		{"v": int64(6)},
		{"v": json.Number("6")},
		{"v": float32(6)},
	}

	base, err := HashOf(variants[0])
	if err != nil {
		t.Fatalf("HashOf: %v", err)
	}
	for i, m := range variants[1:] {
		h, err := HashOf(m)
		if err != nil {
			t.Fatalf("variant %d: %v", i+1, err)
		}
		if h != base {
			t.Errorf("variant %d hash = %s, want %s", i+1, h, base)
		}
	}
}

func TestHashLargeIntegers(t *testing.T) {
	// Values above MaxInt64 keep their exact digits, so a uint64 and the
	// json.Number read back from its persisted form identify the same point.
	a, err := HashOf(map[string]interface{}{"v": uint64(math.MaxUint64)})
	if err != nil {
		t.Fatalf("HashOf(uint64): %v", err)
	}
	b, err := HashOf(map[string]interface{}{"v": json.Number("18446744073709551615")})
	if err != nil {
		t.Fatalf("HashOf(json.Number): %v", err)
	}
	if a != b {
		t.Errorf("uint64 and its literal hash differently: %s vs %s", a, b)
	}

	// Adjacent huge literals must not collapse to one float identity.
	c, err := HashOf(map[string]interface{}{"v": json.Number("18446744073709551616")})
	if err != nil {
		t.Fatalf("HashOf: %v", err)
	}
	if c == a {
		t.Error("distinct huge integers produced the same identity")
	}
}

func TestHashLargeIntegralFloats(t *testing.T) {
	// The integral collapse covers the full int64 range, so value-equal
	// integer and float inputs agree at large magnitudes too.
	for _, n := range []int64{1e15, 1e18, -1e15} {
		a, err := HashOf(map[string]interface{}{"n": n})
		if err != nil {
			t.Fatalf("HashOf(int64 %d): %v", n, err)
		}
		b, err := HashOf(map[string]interface{}{"n": float64(n)})
		if err != nil {
			t.Fatalf("HashOf(float64 %g): %v", float64(n), err)
		}
		if a != b {
			t.Errorf("n=%d: int64 and float64 hash differently: %s vs %s", n, a, b)
		}
	}
}

func TestHashDistinguishesValues(t *testing.T) {
	h1, _ := HashOf(map[string]interface{}{"theta": 0.4})
	h2, _ := HashOf(map[string]interface{}{"theta": 0.7})
	if h1 == h2 {
		t.Error("distinct values produced the same identity")
	}

	h3, _ := HashOf(map[string]interface{}{"theta": "0.4"})
	if h1 == h3 {
		t.Error("string and float values produced the same identity")
	}
}

func TestCanonicalizeNested(t *testing.T) {
	a := map[string]interface{}{
		"grid": map[string]interface{}{"nx": 10, "ny": 20},
		"tags": []interface{}{"fast", "coarse"},
	}
	b := map[string]interface{}{
		"tags": []interface{}{"fast", "coarse"},
		"grid": map[string]interface{}{"ny": 20.0, "nx": 10.0},
	}
	if !Equal(a, b) {
		t.Error("nested value-equal maps not Equal")
	}

	c := map[string]interface{}{
		"grid": map[string]interface{}{"nx": 10, "ny": 20},
		"tags": []interface{}{"coarse", "fast"}, // sequence order matters
	}
	if Equal(a, c) {
		t.Error("sequences with different order compared equal")
	}
}

func TestCanonicalizeTypedSlices(t *testing.T) {
	a := map[string]interface{}{"dims": []int{3, 4, 5}}
	b := map[string]interface{}{"dims": []interface{}{3, 4, 5}}
	if !Equal(a, b) {
		t.Error("[]int and []interface{} of same values not Equal")
	}
}

func TestCanonicalizeRejectsBadKinds(t *testing.T) {
	cases := []map[string]interface{}{
		{"fn": func() {}},
		{"ch": make(chan int)},
		{"m": map[int]string{1: "x"}},
		{"nested": map[string]interface{}{"deep": complex(1, 2)}},
	}
	for i, params := range cases {
		_, err := Canonicalize(params)
		if !errors.Is(err, ErrInvalidParameterKind) {
			t.Errorf("case %d: err = %v, want ErrInvalidParameterKind", i, err)
		}
	}
}

func TestErrorNamesOffendingPath(t *testing.T) {
	_, err := Canonicalize(map[string]interface{}{
		"outer": map[string]interface{}{"bad": make(chan int)},
	})
	if err == nil || !strings.Contains(err.Error(), "outer.bad") {
		t.Errorf("error should name the offending path, got: %v", err)
	}
}

func TestIDShape(t *testing.T) {
	id, err := HashOf(map[string]interface{}{"v": 6, "theta": 0.4})
	if err != nil {
		t.Fatalf("HashOf: %v", err)
	}
	if !IsValidID(string(id)) {
		t.Errorf("identity %q is not %d lowercase hex chars", id, IDLength)
	}
	if IsValidID("not-an-id") || IsValidID(strings.ToUpper(string(id))) {
		t.Error("IsValidID accepted a malformed identity")
	}
}

func TestHashDeterministicAcrossCalls(t *testing.T) {
	params := map[string]interface{}{"v": 6, "theta": 0.4, "n": []interface{}{1, 2, 3}}
	first, _ := HashOf(params)
	for i := 0; i < 50; i++ {
		h, _ := HashOf(params)
		if h != first {
			t.Fatalf("iteration %d: hash changed: %s vs %s", i, h, first)
		}
	}
}
