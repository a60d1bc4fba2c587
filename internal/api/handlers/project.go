package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noops-dev/noops/internal/api/dto"
	apimiddleware "github.com/noops-dev/noops/internal/api/middleware"
	"github.com/noops-dev/noops/internal/api/response"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/service"
)

// ProjectHandler implements the `/api/:project` route group of spec.md
// §4.8.
type ProjectHandler struct {
	projects      *service.ProjectService
	publicBaseURL string
	logger        *slog.Logger
}

// NewProjectHandler constructs a ProjectHandler. publicBaseURL is
// prepended to a handler's id to build its invocation link.
func NewProjectHandler(projects *service.ProjectService, publicBaseURL string, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"), logger: logger}
}

// Create implements `POST /api/:project`.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := apimiddleware.UserFromContext(r.Context())
	name := chi.URLParam(r, "project")

	_, err := h.projects.CreateProject(r.Context(), user, name)
	if err != nil {
		h.writeServiceError(w, "project.Create", err)
		return
	}
	response.WriteNoContent(w)
}

// Get implements `GET /api/:project`.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := apimiddleware.UserFromContext(r.Context())
	name := chi.URLParam(r, "project")

	project, handlerRows, err := h.projects.GetProject(r.Context(), user, name)
	if err != nil {
		h.writeServiceError(w, "project.Get", err)
		return
	}

	response.WriteJSON(w, http.StatusOK, dto.GetProject{
		Name:     project.Name,
		Handlers: toHandlerDTOs(handlerRows, h.publicBaseURL),
	})
}

// Delete implements `DELETE /api/:project`.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := apimiddleware.UserFromContext(r.Context())
	name := chi.URLParam(r, "project")

	if err := h.projects.DeleteProject(r.Context(), user, name); err != nil {
		h.writeServiceError(w, "project.Delete", err)
		return
	}
	response.WriteJSON(w, http.StatusOK, nil)
}

func (h *ProjectHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.WriteNotFound(w, "project not found")
	case errors.Is(err, service.ErrProjectAlreadyExists):
		response.WriteConflict(w, "project already exists")
	case errors.Is(err, service.ErrInvalidName):
		response.WriteError(w, http.StatusBadRequest, "invalid project name")
	default:
		response.WriteInternalError(w, h.logger, op, err)
	}
}

func toHandlerDTOs(rows []metastore.Handler, publicBaseURL string) []dto.GetHandler {
	out := make([]dto.GetHandler, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.GetHandler{
			Name:     row.Name,
			Language: row.Language,
			Hash:     row.Fingerprint,
			Link:     publicBaseURL + "/" + row.ID,
		})
	}
	return out
}
