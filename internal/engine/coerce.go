package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// equals is deep structural equality with one relaxation: when both sides
// are numbers they are compared numerically, since the same document yields
// float64 from JSON, int64 from CSV inference and int from YAML.
func equals(a, b any) bool {
	if af, ok := numeric(a); ok {
		if bf, ok := numeric(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

// numeric reports whether v is a number (not a numeric string) and returns
// its float64 value.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toFloat coerces a value to float64 for ordered comparison. Booleans count
// as 1/0 and numeric strings are parsed; anything else is an error.
func toFloat(v any) (float64, error) {
	if f, ok := numeric(v); ok {
		return f, nil
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot compare '%s' numerically", t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot compare %T numerically", v)
}

// timestampLayouts are tried in order. RFC3339 covers offsets and a
// trailing Z; the remaining layouts cover offset-less ISO-8601 spellings.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stringify is the string form used by the substring/prefix/suffix/regex
// operators. Non-string actuals are deliberately stringified rather than
// rejected, so contains(12345, "234") holds.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// member reports whether item is contained in container: substring for
// strings, element equality for lists, key presence for mappings.
func member(container, item any) bool {
	switch c := container.(type) {
	case string:
		if s, ok := item.(string); ok {
			return strings.Contains(c, s)
		}
		return false
	case map[string]any:
		if s, ok := item.(string); ok {
			_, found := c[s]
			return found
		}
		return false
	}

	v := reflect.ValueOf(container)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if equals(v.Index(i).Interface(), item) {
				return true
			}
		}
	}
	return false
}

// toList coerces a value to a list for "any of" semantics. Lists pass
// through; a string is split on '|' if present, else on ',', else kept
// whole; any other scalar becomes a single-element list.
func toList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case string:
		var parts []string
		switch {
		case strings.Contains(t, "|"):
			parts = strings.Split(t, "|")
		case strings.Contains(t, ","):
			parts = strings.Split(t, ",")
		default:
			return []any{t}
		}
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

func intersects(a, b []any) bool {
	for _, av := range a {
		for _, bv := range b {
			if equals(av, bv) {
				return true
			}
		}
	}
	return false
}

// isEmpty is a falsiness test: nil, empty string, empty container, zero and
// false all count as empty.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	if f, ok := numeric(v); ok {
		return f == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
