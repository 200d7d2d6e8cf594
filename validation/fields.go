package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Fields is a decoded JSON request body, or the persisted state of a row
// expressed with the same keys.
type Fields map[string]any

// Merge returns base overlaid with every key present in overlay
func Merge(base, overlay Fields) Fields {
	out := make(Fields, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-null value
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// String returns the value of key when it is a JSON string
func (f Fields) String(key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok
}

// Float accepts JSON numbers and numeric strings
func (f Fields) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Int accepts integral JSON numbers and integer strings
func (f Fields) Int(key string) (int64, bool) {
	if s, ok := f[key].(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || n > math.MaxInt32 || n < -math.MaxInt32 {
			return 0, false
		}
		return n, true
	}
	n, ok := f.Float(key)
	if !ok || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, false
	}
	return int64(n), true
}

// ID returns a positive row identifier
func (f Fields) ID(key string) (uint, bool) {
	n, ok := f.Int(key)
	if !ok || n <= 0 {
		return 0, false
	}
	return uint(n), true
}
