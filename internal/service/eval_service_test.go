package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/verdict/internal/audit"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/engine"
	"github.com/darmiel/verdict/internal/normalize"
	"github.com/darmiel/verdict/internal/store"
)

func newTestService() *EvalService {
	s := store.NewInMemoryStore()
	return NewEvalService(
		engine.New(),
		engine.NewManager(engine.PolicySet{}),
		normalize.DefaultOptions(),
		s,
		s,
		audit.NewNoopAuditor(),
	)
}

func statusCode(t *testing.T, err error) int {
	t.Helper()
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.StatusCode
}

func TestEvaluate(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Evaluate(context.Background(), EvaluateRequest{
		Users: Upload{
			Name: "users.json",
			Content: []byte(`[
				{"name": "alice", "age": 30, "mfa_enabled": true},
				{"name": "bob", "age": 16, "mfa_enabled": false}
			]`),
		},
		Policies: Upload{
			Name: "policies.json",
			Content: []byte(`{"policies": [
				{"name": "adults only", "field": "age", "operator": ">=", "value": 18},
				{"name": "mfa required", "field": "mfa_enabled", "operator": "==", "value": true}
			]}`),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Users)
	assert.Equal(t, 2, resp.Policies)
	assert.Equal(t, 4, resp.TotalEvaluations)
	assert.Equal(t, 2, resp.Passed)
	assert.Equal(t, 2, resp.Failed)
	assert.NotEmpty(t, resp.RunID)

	// record-major order: alice vs both policies first
	require.Len(t, resp.Results, 4)
	assert.True(t, resp.Results[0].Passed)
	assert.True(t, resp.Results[1].Passed)
	assert.False(t, resp.Results[2].Passed)
	assert.False(t, resp.Results[3].Passed)

	assert.Equal(t, "alice", resp.Results[0].UserContext.Label)
	assert.Equal(t, "adults only", resp.Results[0].PolicyContext.Label)

	// failed evaluation carries the failing condition
	require.NotEmpty(t, resp.Results[2].FailedConditions)
	assert.Equal(t, "age", resp.Results[2].FailedConditions[0].Field)
}

func TestEvaluateCSVUsers(t *testing.T) {
	svc := newTestService()

	resp, err := svc.Evaluate(context.Background(), EvaluateRequest{
		Users: Upload{
			Name:    "users.csv",
			Content: []byte("name,age\nalice,30\nbob,16\n"),
		},
		Policies: Upload{
			Name:    "policies.yaml",
			Content: []byte("policies:\n  - field: age\n    operator: '>='\n    value: 18\n"),
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Passed)
	assert.False(t, resp.Results[1].Passed)
}

func TestEvaluateUsesCurrentPolicySet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.UploadDocument(ctx, core.KindPolicy, Upload{
		Name:    "policies.json",
		Content: []byte(`[{"field": "age", "operator": ">=", "value": 21}]`),
	})
	require.NoError(t, err)

	resp, err := svc.Evaluate(ctx, EvaluateRequest{
		Users: Upload{
			Name:    "users.json",
			Content: []byte(`[{"age": 30}]`),
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Passed)
	assert.Equal(t, "policies.json", resp.Results[0].PolicyContext.Source)
}

func TestEvaluateNoPolicies(t *testing.T) {
	svc := newTestService()

	_, err := svc.Evaluate(context.Background(), EvaluateRequest{
		Users: Upload{Name: "users.json", Content: []byte(`[{"age": 1}]`)},
	})
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
}

func TestEvaluateBadUpload(t *testing.T) {
	svc := newTestService()

	for name, req := range map[string]EvaluateRequest{
		"invalid json": {
			Users:    Upload{Name: "users.json", Content: []byte(`{not json`)},
			Policies: Upload{Name: "p.json", Content: []byte(`[{"field":"a","operator":"==","value":1}]`)},
		},
		"unsupported user extension": {
			Users:    Upload{Name: "users.yaml", Content: []byte(`- age: 1`)},
			Policies: Upload{Name: "p.json", Content: []byte(`[{"field":"a","operator":"==","value":1}]`)},
		},
		"unsupported policy extension": {
			Users:    Upload{Name: "users.json", Content: []byte(`[{"age": 1}]`)},
			Policies: Upload{Name: "p.csv", Content: []byte("field\nage\n")},
		},
		"scalar policy payload": {
			Users:    Upload{Name: "users.json", Content: []byte(`[{"age": 1}]`)},
			Policies: Upload{Name: "p.json", Content: []byte(`42`)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Evaluate(context.Background(), req)
			assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
		})
	}
}

func TestEvaluatePersist(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	resp, err := svc.Evaluate(ctx, EvaluateRequest{
		Users:    Upload{Name: "users.json", Content: []byte(`[{"age": 30}]`)},
		Policies: Upload{Name: "p.json", Content: []byte(`[{"field": "age", "operator": ">", "value": 18}]`)},
		Persist:  true,
	})
	require.NoError(t, err)

	stored, err := svc.Results(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, resp.RunID, stored[0].RunID)
	assert.True(t, stored[0].Result.Passed)

	deleted, err := svc.ClearResults(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestUploadAndEvaluateStored(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	userUp, err := svc.UploadDocument(ctx, core.KindUser, Upload{
		Name:    "users.csv",
		Content: []byte("name,score\nalice,90\nbob,40\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, userUp.Entries)
	assert.NotEmpty(t, userUp.Fingerprint)

	policyUp, err := svc.UploadDocument(ctx, core.KindPolicy, Upload{
		Name:    "policies.json",
		Content: []byte(`[{"name": "pass mark", "field": "score", "operator": "at_least", "value": 50}]`),
	})
	require.NoError(t, err)

	resp, err := svc.EvaluateStored(ctx, StoredEvaluateRequest{
		UsersID:    userUp.ID,
		PoliciesID: policyUp.ID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Passed)
	assert.False(t, resp.Results[1].Passed)
}

func TestEvaluateStoredErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	userUp, err := svc.UploadDocument(ctx, core.KindUser, Upload{
		Name:    "users.json",
		Content: []byte(`[{"age": 1}]`),
	})
	require.NoError(t, err)

	t.Run("unknown ID", func(t *testing.T) {
		_, err := svc.EvaluateStored(ctx, StoredEvaluateRequest{
			UsersID:    userUp.ID,
			PoliciesID: "missing",
		})
		assert.Equal(t, http.StatusNotFound, statusCode(t, err))
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := svc.EvaluateStored(ctx, StoredEvaluateRequest{
			UsersID:    userUp.ID,
			PoliciesID: userUp.ID,
		})
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})

	t.Run("missing ID", func(t *testing.T) {
		_, err := svc.EvaluateStored(ctx, StoredEvaluateRequest{})
		assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
	})
}

func TestDocumentLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	up, err := svc.UploadDocument(ctx, core.KindUser, Upload{
		Name:    "users.json",
		Content: []byte(`[{"name": "alice"}]`),
	})
	require.NoError(t, err)

	docs, err := svc.ListDocuments(ctx, core.KindUser)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Nil(t, docs[0].Entries, "listings should not carry entries")

	doc, err := svc.GetDocument(ctx, up.ID)
	require.NoError(t, err)
	assert.Len(t, doc.Entries, 1)

	require.NoError(t, svc.DeleteDocument(ctx, up.ID))

	err = svc.DeleteDocument(ctx, up.ID)
	assert.Equal(t, http.StatusNotFound, statusCode(t, err))
}

func TestUploadInvalidKind(t *testing.T) {
	svc := newTestService()

	_, err := svc.UploadDocument(context.Background(), core.Kind("group"), Upload{
		Name:    "x.json",
		Content: []byte(`[]`),
	})
	assert.Equal(t, http.StatusBadRequest, statusCode(t, err))
}

func TestHTTPErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := httpError(http.StatusTeapot, inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "boom", err.Error())
}
