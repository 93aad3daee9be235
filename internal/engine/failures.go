package engine

import "github.com/darmiel/verdict/internal/core"

// CollectFailures flattens a trace into the leaf conditions that failed,
// for user-facing reporting. A trace whose pair passed yields nothing.
func CollectFailures(trace core.Trace) []core.FailedCondition {
	var out []core.FailedCondition
	collectFailures(trace, &out)
	return out
}

func collectFailures(tr core.Trace, out *[]core.FailedCondition) {
	if tr.Type == core.TraceCondition {
		if !tr.Passed {
			*out = append(*out, core.FailedCondition{
				Field:    tr.Field,
				Operator: tr.Operator,
				Expected: tr.Expected,
				Actual:   tr.Actual,
				Error:    tr.Error,
			})
		}
		return
	}
	for _, child := range tr.Conditions {
		collectFailures(child, out)
	}
	if tr.Condition != nil {
		collectFailures(*tr.Condition, out)
	}
}
