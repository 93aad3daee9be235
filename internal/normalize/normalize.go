package normalize

import (
	"errors"
	"fmt"

	"github.com/darmiel/verdict/internal/core"
)

var (
	ErrInvalidPayloadShape = errors.New("payload must be a JSON object or array")
	ErrNoEntriesFound      = errors.New("no entries found in payload")
)

// Options configure wrapper-key scanning, label derivation and heuristic
// array detection. The normalizer never reads ambient configuration; the
// surrounding process constructs Options once and passes them in.
type Options struct {
	PolicyWrapperKeys []string
	UserWrapperKeys   []string
	PolicyLabelKeys   []string
	UserLabelKeys     []string

	HeuristicEnabled  bool
	HeuristicMinSize  int
	HeuristicMaxDepth int
}

// DefaultOptions cover the wrapper and label keys most documents use in
// the wild.
func DefaultOptions() Options {
	return Options{
		PolicyWrapperKeys: []string{"policies", "rules", "checks"},
		UserWrapperKeys:   []string{"users", "data", "records", "items"},
		PolicyLabelKeys:   []string{"name", "title", "id", "policy_id", "description"},
		UserLabelKeys:     []string{"name", "username", "email", "id", "user_id"},
		HeuristicEnabled:  true,
		HeuristicMinSize:  1,
		HeuristicMaxDepth: 5,
	}
}

func (o Options) wrapperKeys(kind core.Kind) []string {
	if kind == core.KindUser {
		return o.UserWrapperKeys
	}
	return o.PolicyWrapperKeys
}

func (o Options) labelKeys(kind core.Kind) []string {
	if kind == core.KindUser {
		return o.UserLabelKeys
	}
	return o.PolicyLabelKeys
}

// Normalize flattens an arbitrary decoded document into an ordered list of
// entries plus a parallel list of provenance contexts. It never returns an
// empty entry list without an error.
func Normalize(payload any, source string, kind core.Kind, opts Options) ([]core.Record, []core.ProvenanceContext, error) {
	switch p := payload.(type) {
	case []any:
		entries, contexts := fromList(p, source, kind, "", "list", opts)
		if len(entries) == 0 {
			return nil, nil, fmt.Errorf("%w: %s array held no object elements", ErrNoEntriesFound, kind)
		}
		return entries, contexts, nil

	case map[string]any:
		// configured wrapper keys in priority order; first list wins
		for _, key := range opts.wrapperKeys(kind) {
			wrapped, ok := p[key].([]any)
			if !ok {
				continue
			}
			entries, contexts := fromList(wrapped, source, kind, key, "wrapper", opts)
			if len(entries) == 0 {
				return nil, nil, fmt.Errorf("%w: section '%s' held no object elements", ErrNoEntriesFound, key)
			}
			return entries, contexts, nil
		}

		if opts.HeuristicEnabled {
			if path, list, found := largestArray(p, opts.HeuristicMinSize, opts.HeuristicMaxDepth); found {
				entries, contexts := fromList(list, source, kind, path, "heuristic", opts)
				if len(entries) > 0 {
					return entries, contexts, nil
				}
				// detected list held nothing evaluable; fall through to the
				// single-entry treatment below
			}
		}

		entry := core.Record(p)
		return []core.Record{entry},
			[]core.ProvenanceContext{buildContext(entry, source, kind, 0, "", "single", opts)},
			nil

	case nil:
		return nil, nil, fmt.Errorf("%w: %s payload was null", ErrInvalidPayloadShape, kind)

	default:
		if kind == core.KindUser {
			// a bare scalar still counts as one pseudo-record
			entry := core.Record{"value": payload}
			return []core.Record{entry},
				[]core.ProvenanceContext{buildContext(entry, source, kind, 0, "", "scalar", opts)},
				nil
		}
		return nil, nil, fmt.Errorf("%w: got %T", ErrInvalidPayloadShape, payload)
	}
}

// fromList turns the object elements of a list into entries, skipping
// everything else. Contexts keep the element's original position even when
// earlier elements were skipped.
func fromList(list []any, source string, kind core.Kind, section, detected string, opts Options) ([]core.Record, []core.ProvenanceContext) {
	entries := make([]core.Record, 0, len(list))
	contexts := make([]core.ProvenanceContext, 0, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		entry := core.Record(m)
		entries = append(entries, entry)
		contexts = append(contexts, buildContext(entry, source, kind, i, section, detected, opts))
	}
	return entries, contexts
}

func buildContext(entry core.Record, source string, kind core.Kind, index int, section, detected string, opts Options) core.ProvenanceContext {
	return core.ProvenanceContext{
		Label:    DeriveLabel(entry, opts.labelKeys(kind)),
		Source:   source,
		Index:    index,
		Section:  section,
		Detected: detected,
	}
}
