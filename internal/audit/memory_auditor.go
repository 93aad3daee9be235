package audit

import (
	"sync"
	"time"

	"github.com/darmiel/verdict/internal/core"
)

var (
	_ core.Auditor     = (*InMemoryAuditor)(nil)
	_ core.AuditReader = (*InMemoryAuditor)(nil)
)

// InMemoryAuditor keeps audit entries in process memory, oldest first.
// It backs the default server configuration and, being readable, serves
// the admin audit endpoint.
type InMemoryAuditor struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

func NewInMemoryAuditor() *InMemoryAuditor {
	return &InMemoryAuditor{}
}

func (a *InMemoryAuditor) Log(entry core.AuditEntry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, entry)
	return nil
}

// GetRecent returns up to limit of the newest entries, oldest first.
// A limit below 1 returns everything.
func (a *InMemoryAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if limit < 1 || limit > len(a.entries) {
		limit = len(a.entries)
	}
	out := make([]core.AuditEntry, limit)
	copy(out, a.entries[len(a.entries)-limit:])
	return out, nil
}

// Find returns up to limit of the newest entries matching filter,
// oldest first.
func (a *InMemoryAuditor) Find(filter func(core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var matches []core.AuditEntry
	for _, entry := range a.entries {
		if filter(entry) {
			matches = append(matches, entry)
		}
	}
	if limit >= 1 && len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}
	return matches, nil
}

func (a *InMemoryAuditor) Close() error {
	return nil
}
