package audit

import "github.com/darmiel/verdict/internal/core"

var _ core.Auditor = (*NoopAuditor)(nil)

// NoopAuditor discards every entry. Local CLI evaluations use it so
// one-off runs leave no trail behind.
type NoopAuditor struct{}

func NewNoopAuditor() *NoopAuditor {
	return &NoopAuditor{}
}

func (NoopAuditor) Log(core.AuditEntry) error {
	return nil
}

func (NoopAuditor) Close() error {
	return nil
}
