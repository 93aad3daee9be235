package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Operator is a canonical comparison operator name. The set is closed:
// Apply dispatches over a switch with one arm per operator, so there is no
// way for a policy document to execute anything but these comparisons.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreaterThan  Operator = ">"
	OpLessThan     Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
	OpContains     Operator = "contains"
	OpNotContains  Operator = "not_contains"
	OpContainsAny  Operator = "contains_any"
	OpRegex        Operator = "regex"
	OpExists       Operator = "exists"
	OpNotExists    Operator = "not_exists"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
	OpIsEmpty      Operator = "is_empty"
	OpIsNotEmpty   Operator = "is_not_empty"
)

var (
	ErrUnknownOperator   = errors.New("unknown operator")
	ErrInvalidComparison = errors.New("invalid comparison")
)

// Apply evaluates a canonical operator against an actual and an expected
// value. A missing field resolves to nil and each operator defines its own
// nil handling, so callers never need to special-case absence.
func Apply(op Operator, actual, expected any) (bool, error) {
	switch op {
	case OpEqual:
		return equals(actual, expected), nil

	case OpNotEqual:
		return !equals(actual, expected), nil

	case OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual:
		return compareOrdered(op, actual, expected)

	case OpIn:
		if expected == nil {
			return false, nil
		}
		return member(expected, actual), nil

	case OpNotIn:
		if expected == nil {
			return true, nil
		}
		return !member(expected, actual), nil

	case OpContains:
		if actual == nil {
			return false, nil
		}
		return strings.Contains(stringify(actual), stringify(expected)), nil

	case OpNotContains:
		if actual == nil {
			return true, nil
		}
		return !strings.Contains(stringify(actual), stringify(expected)), nil

	case OpContainsAny:
		return intersects(toList(actual), toList(expected)), nil

	case OpRegex:
		if actual == nil {
			return false, nil
		}
		re, err := regexp.Compile(stringify(expected))
		if err != nil {
			return false, fmt.Errorf("%w: invalid pattern: %v", ErrInvalidComparison, err)
		}
		return re.MatchString(stringify(actual)), nil

	case OpExists:
		return actual != nil, nil

	case OpNotExists:
		return actual == nil, nil

	case OpStartsWith:
		if actual == nil {
			return false, nil
		}
		return strings.HasPrefix(stringify(actual), stringify(expected)), nil

	case OpEndsWith:
		if actual == nil {
			return false, nil
		}
		return strings.HasSuffix(stringify(actual), stringify(expected)), nil

	case OpIsEmpty:
		return isEmpty(actual), nil

	case OpIsNotEmpty:
		return actual != nil && !isEmpty(actual), nil
	}

	return false, fmt.Errorf("%w: '%s'", ErrUnknownOperator, op)
}

// compareOrdered handles >, <, >= and <=. Nil on either side is false.
// Both sides are first tried as timestamps; if either side does not parse,
// both are coerced to float64. A failed numeric coercion is reported as
// ErrInvalidComparison, never a panic.
func compareOrdered(op Operator, actual, expected any) (bool, error) {
	if actual == nil || expected == nil {
		return false, nil
	}

	if at, ok := parseTimestamp(actual); ok {
		if et, ok := parseTimestamp(expected); ok {
			return orderedResult(op, at.Compare(et)), nil
		}
	}

	af, err := toFloat(actual)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidComparison, err)
	}
	ef, err := toFloat(expected)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidComparison, err)
	}

	switch {
	case af < ef:
		return orderedResult(op, -1), nil
	case af > ef:
		return orderedResult(op, 1), nil
	default:
		return orderedResult(op, 0), nil
	}
}

func orderedResult(op Operator, cmp int) bool {
	switch op {
	case OpGreaterThan:
		return cmp > 0
	case OpLessThan:
		return cmp < 0
	case OpGreaterEqual:
		return cmp >= 0
	case OpLessEqual:
		return cmp <= 0
	}
	return false
}
