package client

import (
	"context"
	"net/http"

	"github.com/noops-dev/noops/internal/api/dto"
)

// ProjectClient mirrors HandlerClient's shape over <base>/<project> for
// create/read/delete.
type ProjectClient struct {
	c *Client
}

// NewProjectClient wraps c as a ProjectClient.
func NewProjectClient(c *Client) *ProjectClient {
	return &ProjectClient{c: c}
}

// Create creates a new project.
func (p *ProjectClient) Create(ctx context.Context, name string) error {
	return p.c.doRequest(ctx, http.MethodPost, "/api/"+name, nil, nil)
}

// Read fetches a project's metadata, including its handler list.
func (p *ProjectClient) Read(ctx context.Context, name string) (*dto.GetProject, error) {
	var out dto.GetProject
	if err := p.c.doRequest(ctx, http.MethodGet, "/api/"+name, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a project and all of its handlers.
func (p *ProjectClient) Delete(ctx context.Context, name string) error {
	return p.c.doRequest(ctx, http.MethodDelete, "/api/"+name, nil, nil)
}
