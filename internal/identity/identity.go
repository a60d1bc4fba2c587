// Package identity exchanges an external identity provider's access token
// for the caller's provider-reported profile, abstracted behind a
// provider-agnostic Provider interface so swapping providers never
// touches the login pipeline (internal/service) that consumes it.
package identity

import (
	"context"
	"fmt"
)

// ExternalUser is the profile information the login pipeline needs from
// any identity provider.
type ExternalUser struct {
	ExternalID string
	Email      string
}

// Provider is the capability an identity provider must offer: resolve the
// caller behind an access token. Whoami returns the external id and the
// email address together; there is no separate email operation.
type Provider interface {
	Whoami(ctx context.Context, accessToken string) (ExternalUser, error)
}

// Error wraps any provider-side failure (network, non-2xx, malformed
// body) so the login pipeline can map it uniformly to ExternalAuthFailed.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
