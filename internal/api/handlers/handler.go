package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noops-dev/noops/internal/api/dto"
	apimiddleware "github.com/noops-dev/noops/internal/api/middleware"
	"github.com/noops-dev/noops/internal/api/response"
	"github.com/noops-dev/noops/internal/service"
)

// HandlerHandler implements the `/api/:project/:handler` route group of
// spec.md §4.8. (Named for the resource it serves, not the HTTP verb —
// matching C7's HandlerService naming.)
type HandlerHandler struct {
	handlers      *service.HandlerService
	publicBaseURL string
	logger        *slog.Logger
}

// NewHandlerHandler constructs a HandlerHandler.
func NewHandlerHandler(handlers *service.HandlerService, publicBaseURL string, logger *slog.Logger) *HandlerHandler {
	return &HandlerHandler{handlers: handlers, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"), logger: logger}
}

// Put implements `PUT /api/:project/:handler`: the path's handler name
// always wins over whatever name is in the body.
func (h *HandlerHandler) Put(w http.ResponseWriter, r *http.Request) {
	user, _ := apimiddleware.UserFromContext(r.Context())
	project := chi.URLParam(r, "project")
	name := chi.URLParam(r, "handler")

	var body dto.CreateHandler
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.WriteError(w, http.StatusRequestEntityTooLarge, "request body exceeds maximum allowed size")
			return
		}
		response.WriteError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if _, err := h.handlers.CreateOrReplace(r.Context(), user, project, name, body.Language, body.Wasm); err != nil {
		h.writeServiceError(w, "handler.Put", err)
		return
	}
	response.WriteNoContent(w)
}

// Get implements `GET /api/:project/:handler`.
func (h *HandlerHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := apimiddleware.UserFromContext(r.Context())
	project := chi.URLParam(r, "project")
	name := chi.URLParam(r, "handler")

	got, err := h.handlers.Get(r.Context(), user, project, name)
	if err != nil {
		h.writeServiceError(w, "handler.Get", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.GetHandler{
		Name:     got.Name,
		Language: got.Language,
		Hash:     got.Fingerprint,
		Link:     h.publicBaseURL + "/" + got.ID,
	})
}

// Delete implements `DELETE /api/:project/:handler`.
func (h *HandlerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := apimiddleware.UserFromContext(r.Context())
	project := chi.URLParam(r, "project")
	name := chi.URLParam(r, "handler")

	if err := h.handlers.Delete(r.Context(), user, project, name); err != nil {
		h.writeServiceError(w, "handler.Delete", err)
		return
	}
	response.WriteJSON(w, http.StatusOK, nil)
}

func (h *HandlerHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.WriteNotFound(w, "project not found")
	case errors.Is(err, service.ErrHandlerNotFound):
		response.WriteNotFound(w, "handler not found")
	case errors.Is(err, service.ErrInvalidName):
		response.WriteError(w, http.StatusBadRequest, "invalid handler name")
	default:
		response.WriteInternalError(w, h.logger, op, err)
	}
}
