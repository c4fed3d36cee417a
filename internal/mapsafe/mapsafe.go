// Package mapsafe reads typed values out of loosely typed option maps decoded from YAML or JSON.
package mapsafe

import (
	"math"
	"slices"
)

// Get returns m[key] as T, or defaultValue when the key is missing or holds another type.
// Numbers convert between the int and float64 forms YAML and JSON decoders produce; a float
// with a fractional part is not an int.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if v, ok := val.(T); ok {
		return v
	}

	n, ok := number(val)
	if !ok {
		return defaultValue
	}
	switch any(defaultValue).(type) {
	case int:
		if n == math.Trunc(n) && n >= math.MinInt && n <= math.MaxInt {
			return any(int(n)).(T)
		}
	case float64:
		return any(n).(T)
	}
	return defaultValue
}

// Unknown returns the keys of m that are not in known, sorted.
func Unknown(m map[string]any, known ...string) []string {
	var out []string
	for k := range m {
		if !slices.Contains(known, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
