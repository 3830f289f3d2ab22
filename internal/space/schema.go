package space

import (
	"encoding/json"
	"sort"
)

// Schema maps each state point key (dotted for nested mappings) to the
// sorted set of value domains observed across all jobs. It is used for
// reporting and view generation, never for correctness-critical decisions.
type Schema map[string][]string

// Value domain names reported by DetectSchema.
const (
	DomainInt      = "int"
	DomainFloat    = "float"
	DomainString   = "string"
	DomainBool     = "bool"
	DomainNull     = "null"
	DomainSequence = "sequence"
	DomainOther    = "other"
)

// DetectSchema scans every job's state point and returns the union of
// parameter keys with their observed value domains.
func (s *Space) DetectSchema() (Schema, error) {
	jobs, err := s.Jobs()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]map[string]bool)
	for _, j := range jobs {
		collectDomains(seen, "", j.StatePoint())
	}

	schema := make(Schema, len(seen))
	for key, domains := range seen {
		list := make([]string, 0, len(domains))
		for d := range domains {
			list = append(list, d)
		}
		sort.Strings(list)
		schema[key] = list
	}
	return schema, nil
}

// Keys returns the schema's keys in sorted order.
func (sc Schema) Keys() []string {
	keys := make([]string, 0, len(sc))
	for k := range sc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectDomains(seen map[string]map[string]bool, prefix string, m map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			collectDomains(seen, key, nested)
			continue
		}
		if seen[key] == nil {
			seen[key] = make(map[string]bool)
		}
		seen[key][domainOf(v)] = true
	}
}

func domainOf(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return DomainNull
	case bool:
		return DomainBool
	case string:
		return DomainString
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return DomainInt
		}
		return DomainFloat
	case float64:
		if val == float64(int64(val)) {
			return DomainInt
		}
		return DomainFloat
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return DomainInt
	case float32:
		return domainOf(float64(val))
	case []interface{}:
		return DomainSequence
	default:
		return DomainOther
	}
}
