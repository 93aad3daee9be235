package client

import (
	"context"

	"github.com/darmiel/verdict/internal/api"
	"github.com/darmiel/verdict/internal/core"
)

// ListResults retrieves persisted evaluation results, newest first.
func (c *Client) ListResults(ctx context.Context, limit uint) ([]core.StoredResult, error) {
	ub := c.url().setPath(api.ResultsRoute)
	if limit > 0 {
		ub = ub.addQueryParam("limit", limit)
	}
	var results []core.StoredResult
	_, err := c.get(ctx, ub.build(), &results)
	return results, err
}

// ClearResults deletes all persisted results. Requires admin privileges.
func (c *Client) ClearResults(ctx context.Context) (int64, error) {
	var resp api.ClearResultsResponse
	_, err := c.delete(ctx, c.url().
		setPath(api.ClearResultsRoute).
		build(), &resp)
	return resp.Deleted, err
}
