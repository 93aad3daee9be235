package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/verdict/internal/api/presenter"
	"github.com/darmiel/verdict/internal/buildinfo"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/service"
)

const maxUploadSize = 32 << 20 // 32 MiB

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

// readUpload reads a single multipart file field into an Upload. The bool
// reports whether the field was present at all.
func readUpload(r *http.Request, field string) (service.Upload, bool, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return service.Upload{}, false, nil
	}
	if err != nil {
		return service.Upload{}, false, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		return service.Upload{}, false, err
	}
	return service.Upload{Name: header.Filename, Content: content}, true, nil
}

// handleEvaluate processes a one-shot evaluation of uploaded files.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		logger.Warn().Err(err).Msg("failed to parse multipart form")
		presenter.Error(w, r, "invalid multipart request", http.StatusBadRequest)
		return
	}

	users, ok, err := readUpload(r, "users")
	if err != nil {
		presenter.Error(w, r, "reading users upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		presenter.Error(w, r, "missing 'users' file", http.StatusBadRequest)
		return
	}

	policies, _, err := readUpload(r, "policies")
	if err != nil {
		presenter.Error(w, r, "reading policies upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.evalService.Evaluate(ctx, service.EvaluateRequest{
		Users:    users,
		Policies: policies,
		Persist:  r.URL.Query().Get("persist") == "true",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("evaluation failed")
		presenter.Err(w, r, err, "evaluation failed")
		return
	}

	presenter.JSON(w, r, resp, http.StatusOK)
}

// handleEvaluateStored evaluates two previously uploaded documents.
func (s *Server) handleEvaluateStored(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload service.StoredEvaluateRequest
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode stored evaluation payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	resp, err := s.evalService.EvaluateStored(ctx, payload)
	if err != nil {
		logger.Warn().Err(err).Msg("stored evaluation failed")
		presenter.Err(w, r, err, "evaluation failed")
		return
	}

	presenter.JSON(w, r, resp, http.StatusOK)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, kind core.Kind) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		logger.Warn().Err(err).Msg("failed to parse multipart form")
		presenter.Error(w, r, "invalid multipart request", http.StatusBadRequest)
		return
	}

	up, ok, err := readUpload(r, "file")
	if err != nil {
		presenter.Error(w, r, "reading upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !ok {
		presenter.Error(w, r, "missing 'file' field", http.StatusBadRequest)
		return
	}

	resp, err := s.evalService.UploadDocument(ctx, kind, up)
	if err != nil {
		logger.Warn().Err(err).Msg("upload failed")
		presenter.Err(w, r, err, "upload failed")
		return
	}

	presenter.JSON(w, r, resp, http.StatusCreated)
}

func (s *Server) handleUploadPolicies(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, core.KindPolicy)
}

func (s *Server) handleUploadUsers(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, core.KindUser)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, kind core.Kind) {
	docs, err := s.evalService.ListDocuments(r.Context(), kind)
	if err != nil {
		presenter.Err(w, r, err, "failed to list documents")
		return
	}
	presenter.JSON(w, r, docs, http.StatusOK)
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, core.KindPolicy)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, core.KindUser)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		presenter.Error(w, r, "missing document ID", http.StatusBadRequest)
		return
	}
	doc, err := s.evalService.GetDocument(r.Context(), id)
	if err != nil {
		presenter.Err(w, r, err, "failed to load document")
		return
	}
	presenter.JSON(w, r, doc, http.StatusOK)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	results, err := s.evalService.Results(r.Context(), limit)
	if err != nil {
		presenter.Err(w, r, err, "failed to list results")
		return
	}
	presenter.JSON(w, r, results, http.StatusOK)
}
