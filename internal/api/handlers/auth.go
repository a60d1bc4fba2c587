// Package handlers implements the HTTP Surface (C8): one file per route
// group, each a thin adapter translating requests into C7/C9 service
// calls and service errors into the wire shapes of spec.md §6.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/noops-dev/noops/internal/api/dto"
	"github.com/noops-dev/noops/internal/api/response"
	"github.com/noops-dev/noops/internal/service"
)

// AuthHandler implements `GET /api/auth/login`.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login implements spec.md §4.8's `GET /api/auth/login?token=<external>`.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	externalToken := r.URL.Query().Get("token")
	if externalToken == "" {
		response.WriteError(w, http.StatusUnauthorized, "missing token query parameter")
		return
	}

	jwt, err := h.auth.Login(r.Context(), externalToken)
	if err != nil {
		if errors.Is(err, service.ErrExternalAuthFailed) {
			response.WriteBadGateway(w, "external authentication failed")
			return
		}
		response.WriteInternalError(w, h.logger, "auth.Login", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.GetJwt{Jwt: jwt})
}
