package normalize

import (
	"errors"
	"testing"

	"github.com/darmiel/verdict/internal/core"
)

func TestNormalizeList(t *testing.T) {
	payload := []any{
		map[string]any{"name": "alice", "age": float64(30)},
		map[string]any{"name": "bob", "age": float64(16)},
	}

	entries, contexts, err := Normalize(payload, "users.json", core.KindUser, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || len(contexts) != 2 {
		t.Fatalf("got %d entries, %d contexts", len(entries), len(contexts))
	}
	if contexts[0].Label != "alice" || contexts[1].Label != "bob" {
		t.Errorf("labels = %q, %q", contexts[0].Label, contexts[1].Label)
	}
	if contexts[0].Detected != "list" || contexts[0].Section != "" {
		t.Errorf("context 0 = %+v", contexts[0])
	}
	if contexts[0].Source != "users.json" {
		t.Errorf("source = %q", contexts[0].Source)
	}
}

func TestNormalizeListSkipsNonObjects(t *testing.T) {
	payload := []any{
		"stray string",
		map[string]any{"name": "alice"},
		float64(42),
		map[string]any{"name": "bob"},
	}

	entries, contexts, err := Normalize(payload, "mixed.json", core.KindUser, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// contexts keep original list positions
	if contexts[0].Index != 1 || contexts[1].Index != 3 {
		t.Errorf("indices = %d, %d, want 1, 3", contexts[0].Index, contexts[1].Index)
	}
}

func TestNormalizeWrapperKey(t *testing.T) {
	payload := map[string]any{
		"version": "1",
		"checks": []any{
			map[string]any{"name": "age check", "field": "age", "operator": ">=", "value": float64(18)},
		},
	}

	entries, contexts, err := Normalize(payload, "policies.yaml", core.KindPolicy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if contexts[0].Section != "checks" || contexts[0].Detected != "wrapper" {
		t.Errorf("context = %+v", contexts[0])
	}
	if contexts[0].Label != "age check" {
		t.Errorf("label = %q", contexts[0].Label)
	}
}

func TestNormalizeWrapperPriority(t *testing.T) {
	// "policies" is scanned before "rules" even when "rules" is larger
	payload := map[string]any{
		"rules": []any{
			map[string]any{"id": "r1"},
			map[string]any{"id": "r2"},
		},
		"policies": []any{
			map[string]any{"id": "p1"},
		},
	}

	entries, contexts, err := Normalize(payload, "doc.json", core.KindPolicy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || contexts[0].Section != "policies" {
		t.Errorf("got %d entries from section %q, want 1 from policies", len(entries), contexts[0].Section)
	}
}

func TestNormalizeWrapperKindSpecific(t *testing.T) {
	// "users" is a user wrapper, not a policy wrapper
	payload := map[string]any{
		"users": []any{
			map[string]any{"name": "alice"},
			map[string]any{"name": "bob"},
		},
	}

	entries, contexts, err := Normalize(payload, "users.json", core.KindUser, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || contexts[0].Section != "users" {
		t.Errorf("got %d entries from section %q", len(entries), contexts[0].Section)
	}
}

func TestNormalizeHeuristic(t *testing.T) {
	payload := map[string]any{
		"meta": "ignored",
		"nested": map[string]any{
			"items": []any{
				map[string]any{"name": "one"},
				map[string]any{"name": "two"},
				map[string]any{"name": "three"},
			},
		},
		"small": []any{
			map[string]any{"name": "lonely"},
		},
	}

	entries, contexts, err := Normalize(payload, "odd.json", core.KindPolicy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if contexts[0].Section != "nested.items" || contexts[0].Detected != "heuristic" {
		t.Errorf("context = %+v", contexts[0])
	}
}

func TestNormalizeHeuristicDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.HeuristicEnabled = false

	payload := map[string]any{
		"entries": []any{
			map[string]any{"name": "one"},
		},
		"kind": "bundle",
	}

	entries, contexts, err := Normalize(payload, "doc.json", core.KindPolicy, opts)
	if err != nil {
		t.Fatal(err)
	}
	// without the heuristic, an unrecognized mapping is a single entry
	if len(entries) != 1 || contexts[0].Detected != "single" {
		t.Errorf("got %d entries detected as %q", len(entries), contexts[0].Detected)
	}
}

func TestNormalizeHeuristicDepthLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.HeuristicMaxDepth = 1

	payload := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": []any{
					map[string]any{"name": "too deep"},
				},
			},
		},
	}

	_, contexts, err := Normalize(payload, "deep.json", core.KindPolicy, opts)
	if err != nil {
		t.Fatal(err)
	}
	if contexts[0].Detected != "single" {
		t.Errorf("detected = %q, want single (list beyond depth limit)", contexts[0].Detected)
	}
}

func TestNormalizeSingleMapping(t *testing.T) {
	payload := map[string]any{"field": "age", "operator": ">=", "value": float64(18)}

	entries, contexts, err := Normalize(payload, "one.json", core.KindPolicy, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || contexts[0].Detected != "single" {
		t.Errorf("got %d entries detected as %q", len(entries), contexts[0].Detected)
	}
}

func TestNormalizeScalar(t *testing.T) {
	entries, contexts, err := Normalize("just a string", "scalar.json", core.KindUser, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["value"] != "just a string" {
		t.Errorf("entry = %+v", entries[0])
	}
	if contexts[0].Detected != "scalar" {
		t.Errorf("detected = %q", contexts[0].Detected)
	}

	// scalars are only tolerated for user payloads
	_, _, err = Normalize("just a string", "scalar.json", core.KindPolicy, DefaultOptions())
	if !errors.Is(err, ErrInvalidPayloadShape) {
		t.Errorf("policy scalar err = %v, want ErrInvalidPayloadShape", err)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		kind    core.Kind
		want    error
	}{
		{"Null Payload", nil, core.KindUser, ErrInvalidPayloadShape},
		{"Empty List", []any{}, core.KindUser, ErrNoEntriesFound},
		{"List Of Scalars", []any{"a", float64(1)}, core.KindPolicy, ErrNoEntriesFound},
		{"Empty Wrapper", map[string]any{"rules": []any{}}, core.KindPolicy, ErrNoEntriesFound},
		{"Wrapper Of Scalars", map[string]any{"policies": []any{"a", "b"}}, core.KindPolicy, ErrNoEntriesFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.payload, "bad.json", tt.kind, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDeriveLabel(t *testing.T) {
	userKeys := DefaultOptions().UserLabelKeys

	tests := []struct {
		name  string
		entry core.Record
		want  string
	}{
		{"Preferred Key", core.Record{"name": "alice", "zz": "other"}, "alice"},
		{"Preferred Order", core.Record{"email": "a@b.c", "username": "alice"}, "alice"},
		{"Numeric Label", core.Record{"id": float64(7)}, "7"},
		{"Fallback Pair", core.Record{"region": "eu", "score": float64(1)}, "region: eu"},
		{"Skips Non-Scalars", core.Record{"active": true, "tags": []any{"x"}, "tier": "gold"}, "tier: gold"},
		{"No Scalars", core.Record{"active": true, "nested": map[string]any{}}, ""},
		{"Preferred Non-Scalar Falls Through", core.Record{"name": map[string]any{}, "city": "berlin"}, "city: berlin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveLabel(tt.entry, userKeys); got != tt.want {
				t.Errorf("DeriveLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPositionalLabel(t *testing.T) {
	if got := PositionalLabel(core.KindUser, 0); got != "User #1" {
		t.Errorf("got %q", got)
	}
	if got := PositionalLabel(core.KindPolicy, 2); got != "Policy #3" {
		t.Errorf("got %q", got)
	}
}

func TestLargestArrayTieBreak(t *testing.T) {
	// equal sizes: the first path in key-sorted traversal wins
	m := map[string]any{
		"zebra": []any{1, 2},
		"apple": []any{3, 4},
	}
	path, list, found := largestArray(m, 1, 5)
	if !found || path != "apple" || len(list) != 2 {
		t.Errorf("largestArray = %q (%d elements, found=%v)", path, len(list), found)
	}
}
