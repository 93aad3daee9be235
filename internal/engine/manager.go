package engine

import (
	"sync"
	"sync/atomic"

	"github.com/darmiel/verdict/internal/core"
)

// PolicySet is the active set of normalized policies served by the API,
// used when an evaluation request names only a user document.
type PolicySet struct {
	Policies []core.Record
	Contexts []core.ProvenanceContext
	Source   string
}

// PolicyManager holds the active PolicySet and allows atomic hot-swaps
// when a new policy document is uploaded.
type PolicyManager struct {
	current atomic.Pointer[PolicySet]
	mu      sync.Mutex
}

func NewManager(initial PolicySet) *PolicyManager {
	m := &PolicyManager{}
	m.current.Store(&initial)
	return m
}

// Current returns the active policy set. The returned set must be treated
// as read-only; it may be shared by concurrent evaluations.
func (m *PolicyManager) Current() *PolicySet {
	return m.current.Load()
}

func (m *PolicyManager) Update(next PolicySet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.Store(&next)
}
