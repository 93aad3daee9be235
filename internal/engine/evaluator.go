package engine

import (
	"errors"
	"sort"
	"strings"

	"github.com/darmiel/verdict/internal/core"
)

// Candidate key lists scanned, in order, when discovering which keys of a
// leaf rule play the field, operator and value roles. First match wins.
var (
	fieldKeys = []string{
		"field", "attribute", "key", "name", "property",
		"condition", "metric", "factor", "dimension",
	}
	operatorKeys = []string{
		"op", "operator", "operation", "equals", "is",
		"comparison", "must_be", "check",
	}
	valueKeys = []string{
		"value", "expected", "target", "compare_to",
		"threshold", "limit", "minimum", "maximum",
	}
)

// metadataKeys never count as implicit conditions.
var metadataKeys = map[string]struct{}{
	"description":     {},
	"name":            {},
	"title":           {},
	"id":              {},
	"policy_id":       {},
	"rule_id":         {},
	"validation_name": {},
}

// Evaluate recursively evaluates a policy node against a record. The node
// may be a logical combinator under several synonymous spellings, a wrapper
// shape, a leaf condition or something inert; the returned trace mirrors
// whatever shape was found. Evaluation never mutates its inputs.
func Evaluate(record core.Record, node any) (bool, core.Trace) {
	if node == nil {
		// absence of a rule is vacuously satisfied
		return true, core.Trace{Result: core.ResultEmptyNode, Passed: true}
	}

	m, ok := node.(map[string]any)
	if !ok {
		// non-object leaves are inert, never a failure
		return true, core.Trace{Result: core.ResultNonDictNode, Passed: true, Value: node}
	}

	// wrapper shape: { matchType: ALL|ANY, rules: [...] }
	if rules, ok := m["rules"].([]any); ok {
		if strings.EqualFold(matchType(m), "ANY") {
			return evaluateAnyOf(record, rules)
		}
		return evaluateAllOf(record, rules)
	}

	// wrapper shape: { match_type: AND|OR|ANY, conditions: [...] }
	if conditions, ok := m["conditions"].([]any); ok {
		if mt := matchType(m); strings.EqualFold(mt, "ANY") || strings.EqualFold(mt, "OR") {
			return evaluateAnyOf(record, conditions)
		}
		return evaluateAllOf(record, conditions)
	}

	// pure indirection: { condition: <node> }
	if inner, ok := m["condition"]; ok {
		return Evaluate(record, inner)
	}

	for _, key := range []string{"allOf", "and"} {
		if children, ok := m[key]; ok {
			return evaluateAllOf(record, asChildren(children))
		}
	}
	for _, key := range []string{"anyOf", "or"} {
		if children, ok := m[key]; ok {
			return evaluateAnyOf(record, asChildren(children))
		}
	}
	if child, ok := m["not"]; ok {
		return evaluateNot(record, child)
	}

	return evaluateCondition(record, m)
}

// matchType reads the combinator selector of a wrapper node.
func matchType(m map[string]any) string {
	for _, key := range []string{"matchType", "match_type"} {
		if v, ok := m[key]; ok {
			return stringify(v)
		}
	}
	return ""
}

// asChildren tolerates a single nested node where a list is conventional.
func asChildren(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// evaluateAllOf evaluates every child even after the first failure so the
// trace always explains all of them. An empty list is vacuously true.
func evaluateAllOf(record core.Record, children []any) (bool, core.Trace) {
	passed := true
	traces := make([]core.Trace, 0, len(children))
	for _, child := range children {
		ok, tr := Evaluate(record, child)
		traces = append(traces, tr)
		if !ok {
			passed = false
		}
	}
	return passed, core.Trace{Type: core.TraceAllOf, Passed: passed, Conditions: traces}
}

// evaluateAnyOf likewise evaluates every child. An empty list is false.
func evaluateAnyOf(record core.Record, children []any) (bool, core.Trace) {
	passed := false
	traces := make([]core.Trace, 0, len(children))
	for _, child := range children {
		ok, tr := Evaluate(record, child)
		traces = append(traces, tr)
		if ok {
			passed = true
		}
	}
	return passed, core.Trace{Type: core.TraceAnyOf, Passed: passed, Conditions: traces}
}

func evaluateNot(record core.Record, child any) (bool, core.Trace) {
	ok, tr := Evaluate(record, child)
	return !ok, core.Trace{Type: core.TraceNot, Passed: !ok, Condition: &tr}
}

// evaluateCondition evaluates one leaf rule. The field, operator and value
// are discovered by scanning the candidate key lists; rules that carry none
// of them are treated as an implicit conjunction of key=value checks.
// Dispatch errors end up inside the trace, never as a Go error.
func evaluateCondition(record core.Record, rule map[string]any) (bool, core.Trace) {
	field, hasField := findKey(rule, fieldKeys)
	operator, hasOperator := findKey(rule, operatorKeys)
	expected, hasValue := findKey(rule, valueKeys)

	if !hasField && !hasOperator && !hasValue {
		return evaluateImplicit(record, rule)
	}

	var fieldName string
	if field != nil {
		fieldName = stringify(field)
	}

	// field and value without an operator means equality
	if operator == nil && field != nil && expected != nil {
		operator = string(OpEqual)
	}

	var op Operator
	if operator != nil {
		op = NormalizeOperator(stringify(operator))
	}

	actual := Resolve(record, fieldName)

	tr := core.Trace{
		Type:     core.TraceCondition,
		Field:    fieldName,
		Operator: string(op),
		Expected: expected,
		Actual:   actual,
	}

	ok, err := Apply(op, actual, expected)
	if err != nil {
		tr.Passed = false
		if errors.Is(err, ErrUnknownOperator) {
			tr.Error = "unknown_operator"
		} else {
			tr.Error = err.Error()
		}
		return false, tr
	}

	tr.Passed = ok
	return ok, tr
}

// evaluateImplicit treats every non-metadata key of the rule as an equality
// check against the record, ANDed together. Keys are visited in sorted
// order so traces are deterministic.
func evaluateImplicit(record core.Record, rule map[string]any) (bool, core.Trace) {
	keys := make([]string, 0, len(rule))
	for k := range rule {
		if _, meta := metadataKeys[k]; meta {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return true, core.Trace{Result: core.ResultNoImplicitCondition, Passed: true}
	}
	sort.Strings(keys)

	passed := true
	traces := make([]core.Trace, 0, len(keys))
	for _, key := range keys {
		expected := rule[key]
		actual := Resolve(record, key)
		ok := equals(actual, expected)
		traces = append(traces, core.Trace{
			Type:     core.TraceCondition,
			Field:    key,
			Operator: string(OpEqual),
			Expected: expected,
			Actual:   actual,
			Passed:   ok,
		})
		if !ok {
			passed = false
		}
	}
	return passed, core.Trace{Type: core.TraceImplicit, Passed: passed, Conditions: traces}
}

// findKey returns the value of the first candidate key present in the
// rule. Presence counts even when the value is null, so a rule spelling
// out `"field": null` still takes the explicit condition path.
func findKey(rule map[string]any, candidates []string) (any, bool) {
	for _, key := range candidates {
		if v, ok := rule[key]; ok {
			return v, true
		}
	}
	return nil, false
}
