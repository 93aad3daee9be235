package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/v1/about"

	EvaluateRoute       = "/v1/evaluate"
	EvaluateStoredRoute = "/v1/evaluate/stored"

	PoliciesRoute = "/v1/policies"
	UsersRoute    = "/v1/users"
	DocumentRoute = "/v1/documents/{id}"

	ResultsRoute = "/v1/results"

	AdminParent       = "/v1/admin/"
	ListAuditsRoute   = AdminParent + "audits"
	ClearResultsRoute = AdminParent + "results"
	DeleteDocRoute    = AdminParent + "documents/{id}"

	TaskParent       = AdminParent + "tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
