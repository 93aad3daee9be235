package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/darmiel/verdict/internal/core"
)

var (
	_ core.DocumentStore = (*InMemoryStore)(nil)
	_ core.ResultStore   = (*InMemoryStore)(nil)
)

// InMemoryStore keeps documents and evaluation results in memory. It is the
// default backend and the one local CLI runs use.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[string]core.Document
	results   []core.StoredResult
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[string]core.Document),
		results:   make([]core.StoredResult, 0),
	}
}

func (s *InMemoryStore) SaveDocument(_ context.Context, doc core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[doc.ID] = doc
	return nil
}

func (s *InMemoryStore) GetDocument(_ context.Context, id string) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return core.Document{}, core.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *InMemoryStore) ListDocuments(_ context.Context, kind core.Kind) ([]core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]core.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if kind != "" && doc.Kind != kind {
			continue
		}
		docs = append(docs, doc)
	}

	// newest first, by upload time
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			if docs[j].UploadedAt.After(docs[i].UploadedAt) {
				docs[i], docs[j] = docs[j], docs[i]
			}
		}
	}

	return docs, nil
}

func (s *InMemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return core.ErrDocumentNotFound
	}
	delete(s.documents, id)
	return nil
}

func (s *InMemoryStore) SaveResults(_ context.Context, runID string, results []core.EvaluationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, result := range results {
		s.results = append(s.results, core.StoredResult{
			ID:          xid.New().String(),
			RunID:       runID,
			Result:      result,
			EvaluatedAt: now,
		})
	}
	return nil
}

func (s *InMemoryStore) ListResults(_ context.Context, limit int) ([]core.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.results) {
		limit = len(s.results)
	}

	// results are appended in order, so the tail is the most recent
	out := make([]core.StoredResult, 0, limit)
	for i := len(s.results) - 1; i >= len(s.results)-limit; i-- {
		out = append(out, s.results[i])
	}

	return out, nil
}

func (s *InMemoryStore) ClearResults(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := int64(len(s.results))
	s.results = s.results[:0]
	return deleted, nil
}

func (s *InMemoryStore) DeleteResultsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []core.StoredResult
	var deleted int64

	for _, r := range s.results {
		if r.EvaluatedAt.Before(cutoff) {
			deleted++
		} else {
			kept = append(kept, r)
		}
	}

	s.results = kept
	return deleted, nil
}
