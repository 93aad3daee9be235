package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/darmiel/verdict/internal/api"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/service"
)

func uploadRouteFor(kind core.Kind) (string, error) {
	switch kind {
	case core.KindPolicy:
		return api.PoliciesRoute, nil
	case core.KindUser:
		return api.UsersRoute, nil
	default:
		return "", fmt.Errorf("unknown document kind '%s'", kind)
	}
}

// UploadDocument uploads a policy or user file to the server store.
func (c *Client) UploadDocument(
	ctx context.Context,
	kind core.Kind,
	up service.Upload,
) (*service.UploadResponse, string, error) {
	route, err := uploadRouteFor(kind)
	if err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", up.Name)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := io.Copy(fw, bytes.NewReader(up.Content)); err != nil {
		return nil, "", fmt.Errorf("writing multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url().
		setPath(route).
		build(), body)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result service.UploadResponse
	correlation, err := c.do(req, &result)
	if err != nil {
		return nil, correlation, err
	}
	return &result, correlation, nil
}

// ListDocuments lists all uploaded documents of the given kind.
func (c *Client) ListDocuments(ctx context.Context, kind core.Kind) ([]core.Document, error) {
	route, err := uploadRouteFor(kind)
	if err != nil {
		return nil, err
	}
	var docs []core.Document
	_, err = c.get(ctx, c.url().setPath(route).build(), &docs)
	return docs, err
}

// GetDocument retrieves a single document, including its normalized entries.
func (c *Client) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var doc core.Document
	_, err := c.get(ctx, c.url().
		setPath(api.DocumentRoute).
		setPathParam("id", id).
		build(), &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a stored document. Requires admin privileges.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	_, err := c.delete(ctx, c.url().
		setPath(api.DeleteDocRoute).
		setPathParam("id", id).
		build(), nil)
	return err
}
