package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noops-dev/noops/internal/identity"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/token"
)

// AuthService implements the server side of the login pipeline (C6),
// minting a session token (C5) for a user resolved or created from an
// external identity provider's profile, per spec.md §4.6.
type AuthService struct {
	provider identity.Provider
	users    *metastore.UserRepository
	codec    *token.Codec
}

// NewAuthService constructs an AuthService over the given provider, user
// repository, and session token codec.
func NewAuthService(provider identity.Provider, users *metastore.UserRepository, codec *token.Codec) *AuthService {
	return &AuthService{provider: provider, users: users, codec: codec}
}

// Login exchanges an external access token for a session token: resolve
// the caller's provider profile, upsert the local User by external id
// (create on first login, refresh the stored provider token otherwise),
// then mint a session token with sub = user.id.
func (s *AuthService) Login(ctx context.Context, externalAccessToken string) (string, error) {
	profile, err := s.provider.Whoami(ctx, externalAccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternalAuthFailed, err)
	}

	user, err := s.users.FindByExternalID(ctx, profile.ExternalID)
	switch {
	case err == nil:
		if err := s.users.UpdateExternalToken(ctx, user.ID, externalAccessToken); err != nil {
			return "", fmt.Errorf("service: refresh external token: %w", err)
		}
	case errors.Is(err, metastore.ErrNotFound):
		user = &metastore.User{
			ID:            uuid.NewString(),
			Email:         profile.Email,
			ExternalID:    profile.ExternalID,
			ExternalToken: externalAccessToken,
		}
		if err := s.users.Create(ctx, *user); err != nil {
			return "", fmt.Errorf("service: create user: %w", err)
		}
	default:
		return "", fmt.Errorf("service: find user: %w", err)
	}

	signed, err := s.codec.Encode(user.ID)
	if err != nil {
		return "", fmt.Errorf("service: mint session token: %w", err)
	}
	return signed, nil
}
