package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/noops-dev/noops/internal/api/dto"
)

// Login exchanges an external identity provider's access token for a
// session JWT via GET /api/auth/login?token=<externalAccessToken> and
// returns the JWT string. The request is sent by an unauthenticated Client;
// callers build an authenticated Client from the returned JWT afterward.
func Login(ctx context.Context, baseURL, externalAccessToken string, opts ...ClientOption) (string, error) {
	c := NewClient("", append([]ClientOption{WithBaseURL(baseURL)}, opts...)...)

	path := "/api/auth/login?token=" + url.QueryEscape(externalAccessToken)
	var out dto.GetJwt
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Jwt, nil
}
