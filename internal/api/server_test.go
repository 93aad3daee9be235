package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/verdict/internal/audit"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/engine"
	"github.com/darmiel/verdict/internal/normalize"
	"github.com/darmiel/verdict/internal/service"
	"github.com/darmiel/verdict/internal/store"
	"github.com/darmiel/verdict/internal/tasks"
)

var testSigningKey = []byte("test-signing-key")

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	st := store.NewInMemoryStore()
	svc := service.NewEvalService(
		engine.New(),
		engine.NewManager(engine.PolicySet{}),
		normalize.DefaultOptions(),
		st,
		st,
		audit.NewInMemoryAuditor(),
	)
	srv := NewServer(svc, tasks.NewManager(), audit.NewInMemoryAuditor())
	return srv.Routes(testSigningKey)
}

func multipartBody(t *testing.T, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, nameContent := range files {
		fw, err := mw.CreateFormFile(field, nameContent[0])
		require.NoError(t, err)
		_, err = io.Copy(fw, strings.NewReader(nameContent[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func adminToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "tester",
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func TestHealthAndAbout(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthCheckRoute, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, AboutRoute, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Verdict")
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestEvaluateEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	body, contentType := multipartBody(t, map[string][2]string{
		"users":    {"users.json", `[{"name": "alice", "age": 30}]`},
		"policies": {"policies.json", `[{"name": "adults", "field": "age", "operator": ">=", "value": 18}]`},
	})

	req := httptest.NewRequest(http.MethodPost, EvaluateRoute, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalEvaluations)
	assert.Equal(t, 1, resp.Passed)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Passed)
}

func TestEvaluateEndpointMissingUsers(t *testing.T) {
	handler := newTestHandler(t)

	body, contentType := multipartBody(t, map[string][2]string{
		"policies": {"policies.json", `[{"field": "age", "operator": ">=", "value": 18}]`},
	})

	req := httptest.NewRequest(http.MethodPost, EvaluateRoute, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadAndStoredEvaluation(t *testing.T) {
	handler := newTestHandler(t)

	upload := func(route, filename, content string) service.UploadResponse {
		body, contentType := multipartBody(t, map[string][2]string{
			"file": {filename, content},
		})
		req := httptest.NewRequest(http.MethodPost, route, body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp service.UploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	userUp := upload(UsersRoute, "users.csv", "name,age\nalice,30\nbob,16\n")
	policyUp := upload(PoliciesRoute, "policies.yaml", "policies:\n  - field: age\n    operator: '>='\n    value: 18\n")

	assert.Equal(t, 2, userUp.Entries)
	assert.Equal(t, 1, policyUp.Entries)

	// list uploaded user documents
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, UsersRoute, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []core.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, userUp.ID, docs[0].ID)

	// evaluate the stored documents
	payload, err := json.Marshal(service.StoredEvaluateRequest{
		UsersID:    userUp.ID,
		PoliciesID: policyUp.ID,
		Persist:    true,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, EvaluateStoredRoute, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalEvaluations)
	assert.Equal(t, 1, resp.Passed)

	// persisted results are listable
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ResultsRoute, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stored []core.StoredResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Len(t, stored, 2)
}

func TestAdminAuth(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid admin token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil)
		req.Header.Set("Authorization", "Bearer "+adminToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-admin role", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   "tester",
			"roles": []string{"viewer"},
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(testSigningKey)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, ListAuditsRoute, nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminTasks(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, ListTasksRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
