package service

import "github.com/darmiel/verdict/internal/core"

// Upload is one uploaded file as received by the API or CLI.
type Upload struct {
	// Name is the original filename; its extension selects the decoder.
	Name    string
	Content []byte
}

type EvaluateRequest struct {
	Users    Upload
	Policies Upload

	// Persist stores the individual results so they can be listed later.
	Persist bool
}

// StoredEvaluateRequest evaluates previously uploaded documents by ID.
type StoredEvaluateRequest struct {
	UsersID    string `json:"users_id"`
	PoliciesID string `json:"policies_id"`
	Persist    bool   `json:"persist"`
}

type EvaluateResponse struct {
	RunID            string                  `json:"run_id"`
	Users            int                     `json:"users"`
	Policies         int                     `json:"policies"`
	TotalEvaluations int                     `json:"total_evaluations"`
	Passed           int                     `json:"passed"`
	Failed           int                     `json:"failed"`
	Results          []core.EvaluationResult `json:"results"`
}

type UploadResponse struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	Name        string    `json:"name"`
	Fingerprint string    `json:"fingerprint"`
	Entries     int       `json:"entries"`
}
