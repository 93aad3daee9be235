package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/logging"
)

const ResultsRetentionTaskName = "results-retention"

// NewResultsRetentionTask returns a task that prunes stored evaluation
// results older than maxAge.
func NewResultsRetentionTask(results core.ResultStore, maxAge time.Duration) TaskFunc {
	return func(ctx context.Context, logger logging.InternalLogger) error {
		cutoff := time.Now().Add(-maxAge)
		deleted, err := results.DeleteResultsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("pruning results: %w", err)
		}
		logger.Info("pruned %d results older than %s", deleted, maxAge)
		return nil
	}
}
