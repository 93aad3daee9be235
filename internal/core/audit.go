package core

import "time"

// AuditEntry records one upload or evaluation run.
type AuditEntry struct {
	// ID is the correlation ID of the request that triggered the run.
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Action string    `json:"action"`

	// Source describes the document(s) involved, e.g. "users.csv + policies.json".
	Source string `json:"source,omitempty"`

	// Kind is set for uploads.
	Kind Kind `json:"kind,omitempty"`

	// Fingerprint identifies the uploaded content for traceability.
	Fingerprint string `json:"fingerprint,omitempty"`

	Entries int `json:"entries,omitempty"`
	Pairs   int `json:"pairs,omitempty"`
	Passed  int `json:"passed,omitempty"`
	Failed  int `json:"failed,omitempty"`

	Error string `json:"error,omitempty"`
}
