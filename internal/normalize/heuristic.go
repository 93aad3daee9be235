package normalize

import "sort"

// largestArray recursively searches a mapping (and nested mappings, up to
// maxDepth levels down) for the largest list of at least minSize elements
// and returns its dot-joined key path. Traversal is key-sorted at every
// level, so the first-found tie-break is deterministic regardless of map
// iteration order.
func largestArray(m map[string]any, minSize, maxDepth int) (string, []any, bool) {
	var bestPath string
	var best []any
	walkArrays(m, "", 0, minSize, maxDepth, &bestPath, &best)
	return bestPath, best, best != nil
}

func walkArrays(m map[string]any, prefix string, depth, minSize, maxDepth int, bestPath *string, best *[]any) {
	if depth > maxDepth {
		return
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := m[k].(type) {
		case []any:
			if len(v) >= minSize && len(v) > len(*best) {
				*bestPath = path
				*best = v
			}
		case map[string]any:
			walkArrays(v, path, depth+1, minSize, maxDepth, bestPath, best)
		}
	}
}
