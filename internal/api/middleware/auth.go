package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/noops-dev/noops/internal/api/response"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/token"
)

type contextKey int

const userContextKey contextKey = iota

// ContextWithUser attaches u to ctx, for tests and for Auth itself.
func ContextWithUser(ctx context.Context, u metastore.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext retrieves the user attached by Auth.
func UserFromContext(ctx context.Context) (metastore.User, bool) {
	u, ok := ctx.Value(userContextKey).(metastore.User)
	return u, ok
}

// Auth enforces the bearer-session requirement of spec.md §4.8 on every
// route it wraps: decode and verify the token, resolve its subject to a
// User, and attach that User to the request context. Every rejection
// reason is a distinct token.Error Kind, surfaced as the 401 message.
func Auth(codec *token.Codec, users *metastore.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				response.WriteUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := codec.Decode(strings.TrimPrefix(header, prefix))
			if err != nil {
				var terr *token.Error
				msg := "invalid token"
				if errors.As(err, &terr) {
					msg = terr.Error()
				}
				response.WriteUnauthorized(w, msg)
				return
			}

			user, err := users.FindByID(r.Context(), claims.Subject)
			if err != nil {
				response.WriteUnauthorized(w, "unknown token subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), *user)))
		})
	}
}
