package validation

import (
	"fmt"
	"strings"
)

// ValidateKeyList checks a candidate key list (wrapper keys, label keys)
// for empty entries and duplicates. Order is significant and preserved;
// only obviously broken lists are rejected.
func ValidateKeyList(name string, keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("%s: at least one key is required", name)
	}
	seen := make(map[string]struct{}, len(keys))
	for idx, key := range keys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%s: key at index %d is empty", name, idx)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s: duplicate key '%s'", name, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ValidatePositive rejects zero and negative numeric settings.
func ValidatePositive(name string, value int) error {
	if value < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", name, value)
	}
	return nil
}
