package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/noops-dev/noops/internal/api/dto"
)

// HandlerClient operates on a single project's handlers, PUT/GET/DELETE-ing
// <base>/<project>/<handler>. Grounded on
// original_source/crates/client/src/handler.rs's operation set.
type HandlerClient struct {
	c *Client
}

// NewHandlerClient wraps c as a HandlerClient.
func NewHandlerClient(c *Client) *HandlerClient {
	return &HandlerClient{c: c}
}

// Create uploads a new handler. The server treats PUT as create-or-replace,
// so this and Update are the same request.
func (h *HandlerClient) Create(ctx context.Context, project string, req dto.CreateHandler) error {
	return h.Update(ctx, project, req)
}

// Update replaces an existing handler's bytes.
func (h *HandlerClient) Update(ctx context.Context, project string, req dto.CreateHandler) error {
	path := "/api/" + project + "/" + req.Name
	return h.c.doRequest(ctx, http.MethodPut, path, req, nil)
}

// Read fetches a handler's metadata, returning an *APIError for any
// non-2xx response including 404.
func (h *HandlerClient) Read(ctx context.Context, project, name string) (*dto.GetHandler, error) {
	var out dto.GetHandler
	path := "/api/" + project + "/" + name
	if err := h.c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadOptional fetches a handler's metadata, returning (nil, nil) if the
// server responds 404 rather than treating it as an error.
func (h *HandlerClient) ReadOptional(ctx context.Context, project, name string) (*dto.GetHandler, error) {
	got, err := h.Read(ctx, project, name)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return got, nil
}

// Exists reports whether a handler exists, without surfacing 404 as an
// error.
func (h *HandlerClient) Exists(ctx context.Context, project, name string) (bool, error) {
	got, err := h.ReadOptional(ctx, project, name)
	if err != nil {
		return false, err
	}
	return got != nil, nil
}

// Delete removes a handler. Deleting an already-deleted handler surfaces
// the server's 404 as an *APIError, not success.
func (h *HandlerClient) Delete(ctx context.Context, project, name string) error {
	path := "/api/" + project + "/" + name
	return h.c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}
