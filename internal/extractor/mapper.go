// mapper.go - Maps parsed model output onto the expected schemas

package extractor

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/bosocmputer/document_gateway/internal/common"
	"github.com/bosocmputer/document_gateway/internal/countries"
)

// MapFixedSet projects parsed onto exactly the expected keys. Keys the model
// did not return are null, keys nobody asked for are dropped.
func MapFixedSet(parsed Record, expected []string, rc *common.RequestContext) map[string]*string {
	result := make(map[string]*string, len(expected))
	wanted := make(map[string]bool, len(expected))
	for _, key := range expected {
		result[key] = nil
		wanted[key] = true
	}

	for _, key := range sortedKeys(parsed) {
		if !wanted[key] {
			rc.LogWarning("Ignoring unexpected key %q in model response", key)
			continue
		}
		value, ok := coerceString(parsed[key])
		if !ok {
			rc.LogWarning("Key %q has non-scalar value (%s), using null", key, jsonKind(parsed[key]))
		}
		result[key] = value
	}
	return result
}

// MapLicense translates country-specific keys into the canonical license record.
//
// Keys are visited in sorted order. A key found in the field mapping goes to its
// target, or is dropped silently when the target is null. A key absent from the
// mapping is accepted when it is itself a canonical field name and dropped with
// a warning otherwise. Once a field holds a value it is never replaced.
func MapLicense(parsed Record, cfg countries.CountryConfig, rc *common.RequestContext) LicenseRecord {
	var record LicenseRecord

	for _, key := range sortedKeys(parsed) {
		target, mapped := cfg.FieldMapping[key]
		var field string
		switch {
		case mapped && target == nil:
			continue
		case mapped:
			field = *target
		case countries.IsStandardField(key):
			field = key
		default:
			rc.LogWarning("No field mapping for key %q, ignoring", key)
			continue
		}

		slot := record.field(field)
		if slot == nil {
			rc.LogWarning("Key %q maps to unknown field %q, ignoring", key, field)
			continue
		}

		value, ok := coerceString(parsed[key])
		if !ok {
			rc.LogWarning("Key %q has non-scalar value (%s), using null", key, jsonKind(parsed[key]))
		}
		if value == nil {
			continue
		}
		if *slot != nil {
			rc.LogWarning("%s already set, ignoring value from key %q", field, key)
			continue
		}
		*slot = value
	}
	return record
}

// ParseCountryCode reads the detect answer. The code is trimmed and lower-cased;
// an empty string means the model gave no usable code.
func ParseCountryCode(parsed Record) string {
	code, ok := parsed["country_code"].(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(code))
}

// coerceString converts a JSON scalar to its string form. ok is false when the
// value was a boolean, array or object and got replaced by null.
func coerceString(v any) (value *string, ok bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil, false
	}
	return &s, true
}

func sortedKeys(m Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
