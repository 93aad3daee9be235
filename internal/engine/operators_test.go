package engine

import (
	"errors"
	"testing"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		op       Operator
		actual   any
		expected any
		want     bool
	}{
		// --- Equality ---
		{name: "Equal - Match String", op: OpEqual, actual: "prod", expected: "prod", want: true},
		{name: "Equal - Mismatch String", op: OpEqual, actual: "dev", expected: "prod", want: false},
		{name: "Equal - Cross-Type Numbers", op: OpEqual, actual: int64(30), expected: float64(30), want: true},
		{name: "Equal - Bool", op: OpEqual, actual: true, expected: true, want: true},
		{name: "Equal - Nil Both Sides", op: OpEqual, actual: nil, expected: nil, want: true},
		{name: "Equal - Nil vs Value", op: OpEqual, actual: nil, expected: "x", want: false},
		{name: "Equal - No String Number Coercion", op: OpEqual, actual: "30", expected: float64(30), want: false},
		{name: "NotEqual - Mismatch", op: OpNotEqual, actual: "dev", expected: "prod", want: true},
		{name: "NotEqual - Match", op: OpNotEqual, actual: "prod", expected: "prod", want: false},

		// --- Ordered ---
		{name: "GreaterThan - True", op: OpGreaterThan, actual: float64(30), expected: float64(18), want: true},
		{name: "GreaterThan - Equal is False", op: OpGreaterThan, actual: float64(18), expected: float64(18), want: false},
		{name: "GreaterEqual - Equal is True", op: OpGreaterEqual, actual: float64(18), expected: float64(18), want: true},
		{name: "LessThan - True", op: OpLessThan, actual: int64(5), expected: float64(10), want: true},
		{name: "LessEqual - Numeric String Actual", op: OpLessEqual, actual: "7", expected: float64(10), want: true},
		{name: "GreaterThan - Nil Actual", op: OpGreaterThan, actual: nil, expected: float64(1), want: false},
		{name: "LessThan - Nil Expected", op: OpLessThan, actual: float64(1), expected: nil, want: false},
		{name: "GreaterThan - Bool Coerces", op: OpGreaterThan, actual: true, expected: float64(0), want: true},

		// --- Dates ---
		{name: "Date - After", op: OpGreaterThan, actual: "2024-06-01", expected: "2024-01-01", want: true},
		{name: "Date - Before", op: OpLessThan, actual: "2023-12-31", expected: "2024-01-01", want: true},
		{name: "Date - RFC3339 vs Plain", op: OpGreaterEqual, actual: "2024-01-01T00:00:00Z", expected: "2024-01-01", want: true},
		{name: "Date - Datetime With Space", op: OpLessEqual, actual: "2024-01-01 08:00:00", expected: "2024-01-01 09:00:00", want: true},

		// --- Membership ---
		{name: "In - Element of List", op: OpIn, actual: "eu-west", expected: []any{"us-east", "eu-west"}, want: true},
		{name: "In - Not Element", op: OpIn, actual: "ap-south", expected: []any{"us-east"}, want: false},
		{name: "In - Substring of String", op: OpIn, actual: "admin", expected: "admin,viewer", want: true},
		{name: "In - Key of Map", op: OpIn, actual: "role", expected: map[string]any{"role": "x"}, want: true},
		{name: "In - Nil Expected", op: OpIn, actual: "x", expected: nil, want: false},
		{name: "In - Numeric Element Cross-Type", op: OpIn, actual: int64(2), expected: []any{float64(1), float64(2)}, want: true},
		{name: "NotIn - Not Element", op: OpNotIn, actual: "ap-south", expected: []any{"us-east"}, want: true},
		{name: "NotIn - Nil Expected", op: OpNotIn, actual: "x", expected: nil, want: true},

		// --- Substring ---
		{name: "Contains - Substring", op: OpContains, actual: "employee@company.com", expected: "@company.com", want: true},
		{name: "Contains - Number Stringified", op: OpContains, actual: float64(12345), expected: "234", want: true},
		{name: "Contains - Nil Actual", op: OpContains, actual: nil, expected: "x", want: false},
		{name: "NotContains - Nil Actual", op: OpNotContains, actual: nil, expected: "x", want: true},
		{name: "NotContains - Present", op: OpNotContains, actual: "abc", expected: "b", want: false},

		// --- ContainsAny ---
		{name: "ContainsAny - Lists Intersect", op: OpContainsAny, actual: []any{"a", "b"}, expected: []any{"b", "c"}, want: true},
		{name: "ContainsAny - Disjoint", op: OpContainsAny, actual: []any{"a"}, expected: []any{"c"}, want: false},
		{name: "ContainsAny - Pipe Split", op: OpContainsAny, actual: "a|b", expected: []any{"b"}, want: true},
		{name: "ContainsAny - Comma Split", op: OpContainsAny, actual: []any{"b"}, expected: "a,b", want: true},
		{name: "ContainsAny - Scalar Wraps", op: OpContainsAny, actual: "a", expected: "a", want: true},
		{name: "ContainsAny - Nil Actual", op: OpContainsAny, actual: nil, expected: []any{"a"}, want: false},

		// --- Regex ---
		{name: "Regex - Match", op: OpRegex, actual: "user@example.com", expected: `^[^@]+@example\.com$`, want: true},
		{name: "Regex - No Match", op: OpRegex, actual: "user@other.com", expected: `^[^@]+@example\.com$`, want: false},
		{name: "Regex - Nil Actual", op: OpRegex, actual: nil, expected: ".*", want: false},

		// --- Presence ---
		{name: "Exists - Present", op: OpExists, actual: "hidden", expected: nil, want: true},
		{name: "Exists - Absent", op: OpExists, actual: nil, expected: nil, want: false},
		{name: "Exists - False Still Exists", op: OpExists, actual: false, expected: nil, want: true},
		{name: "NotExists - Absent", op: OpNotExists, actual: nil, expected: nil, want: true},

		// --- Prefix / Suffix ---
		{name: "StartsWith - Match", op: OpStartsWith, actual: "production-eu", expected: "production", want: true},
		{name: "StartsWith - Nil Actual", op: OpStartsWith, actual: nil, expected: "p", want: false},
		{name: "EndsWith - Match", op: OpEndsWith, actual: "report.csv", expected: ".csv", want: true},
		{name: "EndsWith - Mismatch", op: OpEndsWith, actual: "report.json", expected: ".csv", want: false},

		// --- Emptiness ---
		{name: "IsEmpty - Empty String", op: OpIsEmpty, actual: "", expected: nil, want: true},
		{name: "IsEmpty - Nil", op: OpIsEmpty, actual: nil, expected: nil, want: true},
		{name: "IsEmpty - Zero", op: OpIsEmpty, actual: float64(0), expected: nil, want: true},
		{name: "IsEmpty - False", op: OpIsEmpty, actual: false, expected: nil, want: true},
		{name: "IsEmpty - Empty List", op: OpIsEmpty, actual: []any{}, expected: nil, want: true},
		{name: "IsEmpty - Non-Empty", op: OpIsEmpty, actual: "x", expected: nil, want: false},
		{name: "IsNotEmpty - Non-Empty", op: OpIsNotEmpty, actual: "x", expected: nil, want: true},
		{name: "IsNotEmpty - Nil", op: OpIsNotEmpty, actual: nil, expected: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.op, tt.actual, tt.expected)
			if err != nil {
				t.Fatalf("Apply() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply(%s, %v, %v) = %v, want %v", tt.op, tt.actual, tt.expected, got, tt.want)
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	t.Run("unknown operator", func(t *testing.T) {
		_, err := Apply("frobnicate", 1, 2)
		if !errors.Is(err, ErrUnknownOperator) {
			t.Errorf("expected ErrUnknownOperator, got %v", err)
		}
	})

	t.Run("non-numeric ordered comparison", func(t *testing.T) {
		_, err := Apply(OpGreaterThan, "abc", float64(1))
		if !errors.Is(err, ErrInvalidComparison) {
			t.Errorf("expected ErrInvalidComparison, got %v", err)
		}
	})

	t.Run("invalid regex pattern", func(t *testing.T) {
		_, err := Apply(OpRegex, "x", "[unclosed")
		if !errors.Is(err, ErrInvalidComparison) {
			t.Errorf("expected ErrInvalidComparison, got %v", err)
		}
	})
}

func TestNormalizeOperator(t *testing.T) {
	tests := []struct {
		raw  string
		want Operator
	}{
		{"==", OpEqual},
		{"eq", OpEqual},
		{"EQUALS", OpEqual},
		{"  is_equal_to  ", OpEqual},
		{"same as", OpEqual},
		{"ne", OpNotEqual},
		{"not equal to", OpNotEqual},
		{"gt", OpGreaterThan},
		{"more_than", OpGreaterThan},
		{"Above", OpGreaterThan},
		{"at_least", OpGreaterEqual},
		{"MIN", OpGreaterEqual},
		{"at most", OpLessEqual},
		{"maximum", OpLessEqual},
		{"one_of", OpIn},
		{"Any Of", OpIn},
		{"none_of", OpNotIn},
		{"includes", OpContains},
		{"has", OpContains},
		{"excludes", OpNotContains},
		{"intersects", OpContainsAny},
		{"matches", OpRegex},
		{"pattern", OpRegex},
		{"is_present", OpExists},
		{"has value", OpExists},
		{"missing", OpNotExists},
		{"begins_with", OpStartsWith},
		{"prefix", OpStartsWith},
		{"suffix", OpEndsWith},
		{"blank", OpIsEmpty},
		{"non_empty", OpIsNotEmpty},
		// unknown spellings pass through for Apply to reject
		{"frobnicate", Operator("frobnicate")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeOperator(tt.raw); got != tt.want {
				t.Errorf("NormalizeOperator(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
