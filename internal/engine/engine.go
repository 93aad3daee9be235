package engine

import (
	"sync"

	"github.com/darmiel/verdict/internal/core"
)

// Engine runs batch evaluations of records against policies.
type Engine struct {
	workers int
}

type Option func(*Engine)

// WithWorkers sets how many goroutines EvaluateAll may fan pairs across.
// Anything below 2 keeps evaluation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateAll cross-products records against policies, record-major then
// policy-minor, and returns one result per pair. Contexts are attached by
// index when supplied. Pairs are independent, so with more than one worker
// they are fanned across goroutines; every worker writes into a
// preallocated slice by pair index, which keeps output order and content
// identical to the sequential path.
func (e *Engine) EvaluateAll(
	records, policies []core.Record,
	recordContexts, policyContexts []core.ProvenanceContext,
) []core.EvaluationResult {
	results := make([]core.EvaluationResult, len(records)*len(policies))
	if len(results) == 0 {
		return results
	}

	evalPair := func(userIdx, policyIdx int) {
		record := records[userIdx]
		policy := policies[policyIdx]

		passed, trace := Evaluate(record, map[string]any(policy))

		res := core.EvaluationResult{
			Record:           record,
			Policy:           policy,
			Passed:           passed,
			Trace:            trace,
			FailedConditions: []core.FailedCondition{},
			UserIndex:        userIdx,
			PolicyIndex:      policyIdx,
		}
		if !passed {
			res.FailedConditions = CollectFailures(trace)
		}
		if userIdx < len(recordContexts) {
			ctx := recordContexts[userIdx]
			res.UserContext = &ctx
		}
		if policyIdx < len(policyContexts) {
			ctx := policyContexts[policyIdx]
			res.PolicyContext = &ctx
		}

		results[userIdx*len(policies)+policyIdx] = res
	}

	if e.workers <= 1 || len(results) == 1 {
		for ui := range records {
			for pi := range policies {
				evalPair(ui, pi)
			}
		}
		return results
	}

	workers := e.workers
	if workers > len(results) {
		workers = len(results)
	}

	pairs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pairs {
				evalPair(idx/len(policies), idx%len(policies))
			}
		}()
	}
	for idx := range results {
		pairs <- idx
	}
	close(pairs)
	wg.Wait()

	return results
}
