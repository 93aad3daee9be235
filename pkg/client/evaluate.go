package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/darmiel/verdict/internal/api"
	"github.com/darmiel/verdict/internal/service"
)

// EvaluateFiles runs a one-shot evaluation of the given user and policy
// files. The policy upload may be empty, in which case the server falls
// back to its current policy set.
func (c *Client) EvaluateFiles(
	ctx context.Context,
	users, policies service.Upload,
	persist bool,
) (*service.EvaluateResponse, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	writeFile := func(field string, up service.Upload) error {
		fw, err := mw.CreateFormFile(field, up.Name)
		if err != nil {
			return err
		}
		_, err = io.Copy(fw, bytes.NewReader(up.Content))
		return err
	}

	if err := writeFile("users", users); err != nil {
		return nil, "", fmt.Errorf("writing users part: %w", err)
	}
	if len(policies.Content) > 0 {
		if err := writeFile("policies", policies); err != nil {
			return nil, "", fmt.Errorf("writing policies part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	ub := c.url().setPath(api.EvaluateRoute)
	if persist {
		ub = ub.addQueryParam("persist", "true")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", ub.build(), body)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result service.EvaluateResponse
	correlation, err := c.do(req, &result)
	if err != nil {
		return nil, correlation, err
	}
	return &result, correlation, nil
}

// EvaluateStored evaluates two previously uploaded documents by ID.
func (c *Client) EvaluateStored(
	ctx context.Context,
	req service.StoredEvaluateRequest,
) (*service.EvaluateResponse, string, error) {
	var result service.EvaluateResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.EvaluateStoredRoute).
		build(), req, &result)
	if err != nil {
		return nil, correlation, err
	}
	return &result, correlation, nil
}
