package core

// ProvenanceContext describes where a flattened entry came from. It is
// derived metadata only and never feeds back into evaluation.
type ProvenanceContext struct {
	// Label is a human-readable name for the entry (e.g. the policy name).
	// Empty when the entry holds no scalar to name it by; callers substitute
	// a positional label in that case.
	Label string `json:"label,omitempty"`

	// Source is the document the entry came from (usually a filename).
	Source string `json:"source,omitempty"`

	// Index is the entry's position in its source list.
	Index int `json:"index"`

	// Section is the wrapper key (or dotted heuristic path) the entry was
	// found under, if any.
	Section string `json:"section,omitempty"`

	// Detected records how the entry was located: "list", "wrapper",
	// "heuristic", "single" or "scalar".
	Detected string `json:"detected,omitempty"`

	// PolicyID is an optional caller-supplied identifier for the document.
	PolicyID string `json:"policy_id,omitempty"`
}

// EvaluationResult is the verdict for one (record, policy) pair.
type EvaluationResult struct {
	Record Record `json:"record"`
	Policy Record `json:"policy"`
	Passed bool   `json:"passed"`
	Trace  Trace  `json:"trace"`

	// FailedConditions is empty whenever Passed is true.
	FailedConditions []FailedCondition `json:"failed_conditions"`

	UserIndex   int `json:"user_index"`
	PolicyIndex int `json:"policy_index"`

	UserContext   *ProvenanceContext `json:"user_context,omitempty"`
	PolicyContext *ProvenanceContext `json:"policy_context,omitempty"`
}
