package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/verdict/internal/core"
)

func testDocumentStore(t *testing.T, s core.DocumentStore) {
	ctx := context.Background()

	doc := core.Document{
		ID:          "doc-1",
		Kind:        core.KindPolicy,
		Name:        "policies.json",
		Fingerprint: "abc",
		Entries:     []core.Record{{"field": "age", "operator": ">=", "value": float64(18)}},
		UploadedAt:  time.Now(),
	}
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.Kind, got.Kind)
	assert.Len(t, got.Entries, 1)

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)

	userDoc := core.Document{ID: "doc-2", Kind: core.KindUser, Name: "users.csv", UploadedAt: time.Now()}
	require.NoError(t, s.SaveDocument(ctx, userDoc))

	policies, err := s.ListDocuments(ctx, core.KindPolicy)
	require.NoError(t, err)
	assert.Len(t, policies, 1)

	all, err := s.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteDocument(ctx, "doc-1"))
	assert.ErrorIs(t, s.DeleteDocument(ctx, "doc-1"), core.ErrDocumentNotFound)
}

func testResultStore(t *testing.T, s core.ResultStore) {
	ctx := context.Background()

	results := []core.EvaluationResult{
		{Passed: true, UserIndex: 0, PolicyIndex: 0},
		{Passed: false, UserIndex: 0, PolicyIndex: 1},
	}
	require.NoError(t, s.SaveResults(ctx, "run-1", results))

	stored, err := s.ListResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, r := range stored {
		assert.Equal(t, "run-1", r.RunID)
		assert.NotEmpty(t, r.ID)
	}

	limited, err := s.ListResults(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	deleted, err := s.DeleteResultsBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = s.ClearResults(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	stored, err = s.ListResults(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestInMemoryStoreDocuments(t *testing.T) {
	testDocumentStore(t, NewInMemoryStore())
}

func TestInMemoryStoreResults(t *testing.T) {
	testResultStore(t, NewInMemoryStore())
}

func TestInMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.SaveResults(ctx, "old-run", []core.EvaluationResult{{Passed: true}}))

	// backdate the stored result to make it eligible for pruning
	s.mu.Lock()
	s.results[0].EvaluatedAt = time.Now().Add(-48 * time.Hour)
	s.mu.Unlock()

	require.NoError(t, s.SaveResults(ctx, "new-run", []core.EvaluationResult{{Passed: false}}))

	deleted, err := s.DeleteResultsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	remaining, err := s.ListResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new-run", remaining[0].RunID)
}
