package engine

import "strings"

// operatorAliases maps natural-language operator spellings to the canonical
// set. Canonical names themselves are not listed; they pass through
// NormalizeOperator unchanged.
var operatorAliases = map[string]Operator{
	"eq":          OpEqual,
	"equal":       OpEqual,
	"equals":      OpEqual,
	"equal_to":    OpEqual,
	"is_equal_to": OpEqual,
	"same_as":     OpEqual,

	"ne":             OpNotEqual,
	"neq":            OpNotEqual,
	"not_equal":      OpNotEqual,
	"not_equals":     OpNotEqual,
	"not_equal_to":   OpNotEqual,
	"different_from": OpNotEqual,

	"gt":           OpGreaterThan,
	"greater_than": OpGreaterThan,
	"more_than":    OpGreaterThan,
	"above":        OpGreaterThan,
	"over":         OpGreaterThan,

	"lt":        OpLessThan,
	"less_than": OpLessThan,
	"below":     OpLessThan,
	"under":     OpLessThan,

	"ge":                    OpGreaterEqual,
	"gte":                   OpGreaterEqual,
	"at_least":              OpGreaterEqual,
	"greater_than_or_equal": OpGreaterEqual,
	"min":                   OpGreaterEqual,
	"minimum":               OpGreaterEqual,

	"le":                 OpLessEqual,
	"lte":                OpLessEqual,
	"at_most":            OpLessEqual,
	"less_than_or_equal": OpLessEqual,
	"max":                OpLessEqual,
	"maximum":            OpLessEqual,

	"one_of":  OpIn,
	"any_of":  OpIn,
	"in_list": OpIn,
	"within":  OpIn,

	"not_one_of":  OpNotIn,
	"none_of":     OpNotIn,
	"not_in_list": OpNotIn,

	"includes": OpContains,
	"has":      OpContains,

	"does_not_contain": OpNotContains,
	"not_includes":     OpNotContains,
	"excludes":         OpNotContains,

	"includes_any": OpContainsAny,
	"has_any":      OpContainsAny,
	"intersects":   OpContainsAny,

	"matches":     OpRegex,
	"regex_match": OpRegex,
	"pattern":     OpRegex,

	"is_present": OpExists,
	"present":    OpExists,
	"has_value":  OpExists,
	"is_set":     OpExists,

	"is_absent": OpNotExists,
	"absent":    OpNotExists,
	"missing":   OpNotExists,
	"not_set":   OpNotExists,

	"begins_with": OpStartsWith,
	"prefix":      OpStartsWith,

	"suffix": OpEndsWith,

	"empty": OpIsEmpty,
	"blank": OpIsEmpty,

	"not_empty": OpIsNotEmpty,
	"not_blank": OpIsNotEmpty,
	"non_empty": OpIsNotEmpty,
}

// NormalizeOperator lower-cases, trims and underscores an operator spelling,
// then resolves it through the alias table. Unrecognized spellings pass
// through unchanged and fail at dispatch as unknown operators.
func NormalizeOperator(raw string) Operator {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	if op, ok := operatorAliases[norm]; ok {
		return op
	}
	return Operator(norm)
}
