package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/verdict/internal/audit"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/decode"
	"github.com/darmiel/verdict/internal/engine"
	"github.com/darmiel/verdict/internal/logging"
	"github.com/darmiel/verdict/internal/normalize"
)

// EvalService ties together decoding, normalization and evaluation. It is
// the layer both the HTTP API and the CLI talk to.
type EvalService struct {
	engine        *engine.Engine
	policyManager *engine.PolicyManager
	opts          normalize.Options
	documents     core.DocumentStore
	results       core.ResultStore
	auditor       core.Auditor
}

func NewEvalService(
	eng *engine.Engine,
	policyManager *engine.PolicyManager,
	opts normalize.Options,
	documents core.DocumentStore,
	results core.ResultStore,
	auditor core.Auditor,
) *EvalService {
	return &EvalService{
		engine:        eng,
		policyManager: policyManager,
		opts:          opts,
		documents:     documents,
		results:       results,
		auditor:       auditor,
	}
}

// allowed upload extensions per document kind
var allowedExtensions = map[core.Kind][]string{
	core.KindPolicy: {".json", ".yaml", ".yml"},
	core.KindUser:   {".json", ".csv"},
}

func decodeUpload(kind core.Kind, up Upload) (any, error) {
	ext := strings.ToLower(filepath.Ext(up.Name))
	allowed := allowedExtensions[kind]
	ok := false
	for _, a := range allowed {
		if ext == a || ext == "" {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("unsupported file type '%s' for %s upload (expected %s)",
			ext, kind, strings.Join(allowed, ", "))
	}
	return decode.ParseAuto(up.Name, up.Content)
}

func (s *EvalService) normalizeUpload(kind core.Kind, up Upload) ([]core.Record, []core.ProvenanceContext, error) {
	payload, err := decodeUpload(kind, up)
	if err != nil {
		return nil, nil, httpError(http.StatusBadRequest, fmt.Errorf("parsing %s upload: %w", kind, err))
	}
	entries, contexts, err := normalize.Normalize(payload, up.Name, kind, s.opts)
	if err != nil {
		return nil, nil, httpError(http.StatusBadRequest, fmt.Errorf("normalizing %s upload: %w", kind, err))
	}
	return entries, contexts, nil
}

// UploadDocument decodes, normalizes and stores an uploaded file. Policy
// uploads additionally become the current policy set.
func (s *EvalService) UploadDocument(ctx context.Context, kind core.Kind, up Upload) (*UploadResponse, error) {
	logger := log.Ctx(ctx)
	reqID := logging.CorrelationID(ctx)

	auditEntry := core.AuditEntry{
		ID:     reqID,
		Time:   time.Now(),
		Action: "document.upload",
		Source: up.Name,
		Kind:   kind,
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for document upload")
		}
	}()

	if !kind.IsValid() {
		auditEntry.Error = "invalid document kind"
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("invalid document kind '%s'", kind))
	}

	payload, err := decodeUpload(kind, up)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("parsing %s upload: %w", kind, err))
	}

	entries, contexts, err := normalize.Normalize(payload, up.Name, kind, s.opts)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("normalizing %s upload: %w", kind, err))
	}

	doc := core.Document{
		ID:          xid.New().String(),
		Kind:        kind,
		Name:        up.Name,
		Fingerprint: audit.Fingerprint(up.Content),
		Raw:         payload,
		Entries:     entries,
		Contexts:    contexts,
		UploadedAt:  time.Now(),
	}
	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		auditEntry.Error = err.Error()
		return nil, httpError(http.StatusInternalServerError, fmt.Errorf("saving document: %w", err))
	}

	if kind == core.KindPolicy {
		s.policyManager.Update(engine.PolicySet{
			Policies: entries,
			Contexts: contexts,
			Source:   up.Name,
		})
		logger.Info().Str("source", up.Name).Int("policies", len(entries)).
			Msg("updated current policy set")
	}

	auditEntry.Fingerprint = doc.Fingerprint
	auditEntry.Entries = len(entries)

	return &UploadResponse{
		ID:          doc.ID,
		Kind:        kind,
		Name:        up.Name,
		Fingerprint: doc.Fingerprint,
		Entries:     len(entries),
	}, nil
}

// Evaluate runs a full cross-product evaluation of the uploaded users
// against the uploaded policies. When the policy upload is empty, the
// current policy set from the last policy upload is used instead.
func (s *EvalService) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResponse, error) {
	logger := log.Ctx(ctx)
	reqID := logging.CorrelationID(ctx)

	auditEntry := core.AuditEntry{
		ID:     reqID,
		Time:   time.Now(),
		Action: "evaluation.run",
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for evaluation run")
		}
	}()

	users, userContexts, err := s.normalizeUpload(core.KindUser, req.Users)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, err
	}

	var (
		policies       []core.Record
		policyContexts []core.ProvenanceContext
		policySource   string
	)
	if len(req.Policies.Content) > 0 {
		if policies, policyContexts, err = s.normalizeUpload(core.KindPolicy, req.Policies); err != nil {
			auditEntry.Error = err.Error()
			return nil, err
		}
		policySource = req.Policies.Name
	} else {
		current := s.policyManager.Current()
		if current == nil || len(current.Policies) == 0 {
			auditEntry.Error = "no policies available"
			return nil, httpError(http.StatusBadRequest,
				errors.New("no policy file uploaded and no current policy set available"))
		}
		policies = current.Policies
		policyContexts = current.Contexts
		policySource = current.Source
	}

	auditEntry.Source = fmt.Sprintf("%s + %s", req.Users.Name, policySource)

	return s.run(ctx, &auditEntry, users, userContexts, policies, policyContexts, req.Persist)
}

// EvaluateStored evaluates two previously uploaded documents by ID.
func (s *EvalService) EvaluateStored(ctx context.Context, req StoredEvaluateRequest) (*EvaluateResponse, error) {
	logger := log.Ctx(ctx)
	reqID := logging.CorrelationID(ctx)

	auditEntry := core.AuditEntry{
		ID:     reqID,
		Time:   time.Now(),
		Action: "evaluation.run_stored",
	}
	defer func() {
		if err := s.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for stored evaluation run")
		}
	}()

	userDoc, err := s.loadDocument(ctx, req.UsersID, core.KindUser)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, err
	}
	policyDoc, err := s.loadDocument(ctx, req.PoliciesID, core.KindPolicy)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, err
	}

	auditEntry.Source = fmt.Sprintf("%s + %s", userDoc.Name, policyDoc.Name)

	return s.run(ctx, &auditEntry,
		userDoc.Entries, userDoc.Contexts,
		policyDoc.Entries, policyDoc.Contexts,
		req.Persist)
}

func (s *EvalService) loadDocument(ctx context.Context, id string, kind core.Kind) (core.Document, error) {
	if id == "" {
		return core.Document{}, httpError(http.StatusBadRequest,
			fmt.Errorf("missing %s document ID", kind))
	}
	doc, err := s.documents.GetDocument(ctx, id)
	if errors.Is(err, core.ErrDocumentNotFound) {
		return core.Document{}, httpError(http.StatusNotFound,
			fmt.Errorf("%s document '%s' not found", kind, id))
	}
	if err != nil {
		return core.Document{}, httpError(http.StatusInternalServerError,
			fmt.Errorf("loading %s document: %w", kind, err))
	}
	if doc.Kind != kind {
		return core.Document{}, httpError(http.StatusBadRequest,
			fmt.Errorf("document '%s' is a %s document, expected %s", id, doc.Kind, kind))
	}
	return doc, nil
}

func (s *EvalService) run(
	ctx context.Context,
	auditEntry *core.AuditEntry,
	users []core.Record, userContexts []core.ProvenanceContext,
	policies []core.Record, policyContexts []core.ProvenanceContext,
	persist bool,
) (*EvaluateResponse, error) {
	logger := log.Ctx(ctx)

	fillPositionalLabels(core.KindUser, userContexts)
	fillPositionalLabels(core.KindPolicy, policyContexts)

	results := s.engine.EvaluateAll(users, policies, userContexts, policyContexts)

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}

	runID := xid.New().String()
	auditEntry.Entries = len(users) + len(policies)
	auditEntry.Pairs = len(results)
	auditEntry.Passed = passed
	auditEntry.Failed = len(results) - passed

	if persist {
		if err := s.results.SaveResults(ctx, runID, results); err != nil {
			auditEntry.Error = err.Error()
			return nil, httpError(http.StatusInternalServerError, fmt.Errorf("persisting results: %w", err))
		}
	}

	logger.Info().
		Str("run_id", runID).
		Int("users", len(users)).
		Int("policies", len(policies)).
		Int("passed", passed).
		Int("failed", len(results)-passed).
		Msg("evaluation run completed")

	return &EvaluateResponse{
		RunID:            runID,
		Users:            len(users),
		Policies:         len(policies),
		TotalEvaluations: len(results),
		Passed:           passed,
		Failed:           len(results) - passed,
		Results:          results,
	}, nil
}

// fillPositionalLabels replaces empty labels with stable positional ones
// like "User #1".
func fillPositionalLabels(kind core.Kind, contexts []core.ProvenanceContext) {
	for i := range contexts {
		if contexts[i].Label == "" {
			contexts[i].Label = normalize.PositionalLabel(kind, contexts[i].Index)
		}
	}
}

func (s *EvalService) ListDocuments(ctx context.Context, kind core.Kind) ([]core.Document, error) {
	if kind != "" && !kind.IsValid() {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("invalid document kind '%s'", kind))
	}
	docs, err := s.documents.ListDocuments(ctx, kind)
	if err != nil {
		return nil, httpError(http.StatusInternalServerError, fmt.Errorf("listing documents: %w", err))
	}
	// the raw payload can be large, keep listings light
	for i := range docs {
		docs[i].Raw = nil
		docs[i].Entries = nil
		docs[i].Contexts = nil
	}
	return docs, nil
}

func (s *EvalService) GetDocument(ctx context.Context, id string) (core.Document, error) {
	doc, err := s.documents.GetDocument(ctx, id)
	if errors.Is(err, core.ErrDocumentNotFound) {
		return core.Document{}, httpError(http.StatusNotFound, fmt.Errorf("document '%s' not found", id))
	}
	if err != nil {
		return core.Document{}, httpError(http.StatusInternalServerError, fmt.Errorf("loading document: %w", err))
	}
	return doc, nil
}

func (s *EvalService) DeleteDocument(ctx context.Context, id string) error {
	err := s.documents.DeleteDocument(ctx, id)
	if errors.Is(err, core.ErrDocumentNotFound) {
		return httpError(http.StatusNotFound, fmt.Errorf("document '%s' not found", id))
	}
	if err != nil {
		return httpError(http.StatusInternalServerError, fmt.Errorf("deleting document: %w", err))
	}
	return nil
}

func (s *EvalService) Results(ctx context.Context, limit int) ([]core.StoredResult, error) {
	results, err := s.results.ListResults(ctx, limit)
	if err != nil {
		return nil, httpError(http.StatusInternalServerError, fmt.Errorf("listing results: %w", err))
	}
	return results, nil
}

func (s *EvalService) ClearResults(ctx context.Context) (int64, error) {
	logger := log.Ctx(ctx)
	reqID := logging.CorrelationID(ctx)

	deleted, err := s.results.ClearResults(ctx)
	if err != nil {
		return 0, httpError(http.StatusInternalServerError, fmt.Errorf("clearing results: %w", err))
	}

	if err := s.auditor.Log(core.AuditEntry{
		ID:      reqID,
		Time:    time.Now(),
		Action:  "results.clear",
		Entries: int(deleted),
	}); err != nil {
		logger.Error().Err(err).Msg("failed to write audit log entry for results clear")
	}

	return deleted, nil
}
