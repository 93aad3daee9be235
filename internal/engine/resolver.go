package engine

import (
	"strings"

	"github.com/darmiel/verdict/internal/core"
)

// Resolve looks up a possibly dotted path in a record and returns nil when
// the path is empty or does not resolve. A literal top-level key wins over
// dotted descent so keys that themselves contain dots stay addressable.
// Resolution is read-only.
func Resolve(record core.Record, path string) any {
	if path == "" || record == nil {
		return nil
	}

	if v, ok := record[path]; ok {
		return v
	}

	var current any = map[string]any(record)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := m[part]
		if !ok {
			return nil
		}
		current = v
	}
	return current
}
