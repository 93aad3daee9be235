package core

// Trace node types.
const (
	TraceCondition = "condition"
	TraceAllOf     = "allOf"
	TraceAnyOf     = "anyOf"
	TraceNot       = "not"
	TraceImplicit  = "implicit_conditions"
)

// Result markers for nodes that are vacuously satisfied.
const (
	ResultEmptyNode           = "empty_node"
	ResultNonDictNode         = "non_dict_node"
	ResultNoImplicitCondition = "no_implicit_conditions"
)

// Trace explains how a pass/fail verdict was reached. It mirrors the shape
// of the policy node it was produced from: leaf conditions carry the
// discovered field/operator/value triple, combinators carry their children.
type Trace struct {
	Type   string `json:"type,omitempty"`
	Result string `json:"result,omitempty"`
	Passed bool   `json:"passed"`

	// Leaf conditions
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`

	// Inert non-object nodes keep their value for transparency.
	Value any `json:"value,omitempty"`

	// Combinator children: Conditions for allOf/anyOf/implicit groups,
	// Condition for the single negated sub-trace of a "not" node.
	Conditions []Trace `json:"conditions,omitempty"`
	Condition  *Trace  `json:"condition,omitempty"`
}

// FailedCondition is one flattened failing leaf, for user-facing reporting.
type FailedCondition struct {
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}
