package normalize

import (
	"fmt"
	"sort"

	"github.com/darmiel/verdict/internal/core"
)

// DeriveLabel returns a human-readable label for an entry: the first scalar
// value under a preferred key, else the first "key: value" scalar pair in
// key-sorted order, else "" (callers substitute a positional label).
func DeriveLabel(entry core.Record, preferred []string) string {
	for _, key := range preferred {
		if v, ok := entry[key]; ok {
			if s, ok := scalarString(v); ok {
				return s
			}
		}
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if s, ok := scalarString(entry[k]); ok {
			return k + ": " + s
		}
	}
	return ""
}

// PositionalLabel is used when an entry holds no scalar to name it by.
func PositionalLabel(kind core.Kind, index int) string {
	if kind == core.KindUser {
		return fmt.Sprintf("User #%d", index+1)
	}
	return fmt.Sprintf("Policy #%d", index+1)
}

// scalarString accepts strings and numbers; everything else (booleans,
// containers, null) does not qualify as a label.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", t), true
	}
	return "", false
}
