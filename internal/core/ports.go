package core

import (
	"context"
	"errors"
	"time"
)

var ErrDocumentNotFound = errors.New("document not found")

// Document is an uploaded policy or user file, kept together with its
// normalized entries so evaluations can reference stored documents by ID.
type Document struct {
	ID          string              `json:"id"`
	Kind        Kind                `json:"kind"`
	Name        string              `json:"name"`
	Fingerprint string              `json:"fingerprint"`
	Raw         any                 `json:"raw,omitempty"`
	Entries     []Record            `json:"entries,omitempty"`
	Contexts    []ProvenanceContext `json:"contexts,omitempty"`
	UploadedAt  time.Time           `json:"uploaded_at"`
}

// StoredResult is one persisted EvaluationResult together with run metadata.
type StoredResult struct {
	ID          string           `json:"id"`
	RunID       string           `json:"run_id"`
	Result      EvaluationResult `json:"result"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// DocumentStore persists uploaded documents.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, error)
	// ListDocuments returns documents of the given kind; an empty kind
	// returns all documents.
	ListDocuments(ctx context.Context, kind Kind) ([]Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// ResultStore persists evaluation results.
type ResultStore interface {
	SaveResults(ctx context.Context, runID string, results []EvaluationResult) error
	// ListResults returns the most recent results first, up to limit.
	ListResults(ctx context.Context, limit int) ([]StoredResult, error)
	ClearResults(ctx context.Context) (int64, error)
	DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Auditor records upload and evaluation runs.
type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}

// AuditReader is implemented by auditors whose entries can be queried back,
// like the in-memory auditor. File-backed auditors are write-only.
type AuditReader interface {
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
}
