package api

import (
	"net/http"

	"github.com/darmiel/verdict/internal/api/middleware"
	"github.com/darmiel/verdict/internal/audit"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/service"
	"github.com/darmiel/verdict/internal/tasks"
)

type Server struct {
	evalService *service.EvalService
	taskManager *tasks.Manager
	auditor     core.Auditor
}

func NewServer(
	evalService *service.EvalService,
	taskManager *tasks.Manager,
	auditor core.Auditor,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	return &Server{
		evalService: evalService,
		taskManager: taskManager,
		auditor:     auditor,
	}
}

func (s *Server) Routes(signingKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// evaluation routes
	mux.HandleFunc("POST "+EvaluateRoute, s.handleEvaluate)
	mux.HandleFunc("POST "+EvaluateStoredRoute, s.handleEvaluateStored)

	// document routes
	mux.HandleFunc("POST "+PoliciesRoute, s.handleUploadPolicies)
	mux.HandleFunc("GET "+PoliciesRoute, s.handleListPolicies)
	mux.HandleFunc("POST "+UsersRoute, s.handleUploadUsers)
	mux.HandleFunc("GET "+UsersRoute, s.handleListUsers)
	mux.HandleFunc("GET "+DocumentRoute, s.handleGetDocument)

	// result routes
	mux.HandleFunc("GET "+ResultsRoute, s.handleListResults)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	adminMux.HandleFunc("DELETE "+ClearResultsRoute, s.handleClearResults)
	adminMux.HandleFunc("DELETE "+DeleteDocRoute, s.handleDeleteDocument)
	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(AdminParent, middleware.AdminAuth(signingKey)(adminMux))

	return middleware.Recover(
		middleware.Correlation(
			middleware.RequestLogging(
				mux)))
}
