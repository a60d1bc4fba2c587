package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noops-dev/noops/internal/api/response"
	"github.com/noops-dev/noops/internal/sandbox"
	"github.com/noops-dev/noops/internal/service"
)

// InvokeHandler implements the public `GET /:handler` invocation route of
// spec.md §4.8. Handlers are addressed directly by id here, not by
// (project, name), and the route requires no bearer token.
type InvokeHandler struct {
	handlers *service.HandlerService
	sandbox  *sandbox.Sandbox
	logger   *slog.Logger
}

// NewInvokeHandler constructs an InvokeHandler.
func NewInvokeHandler(handlers *service.HandlerService, sb *sandbox.Sandbox, logger *slog.Logger) *InvokeHandler {
	return &InvokeHandler{handlers: handlers, sandbox: sb, logger: logger}
}

// Invoke reads the packaged guest for the named handler id and runs it in
// the sandbox, forwarding the guest's own status and body. Query
// parameters are parsed from the raw URL directly so encounter order
// survives (r.URL.Query()'s map does not preserve it).
func (h *InvokeHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "handler")

	_, packaged, err := h.handlers.ReadByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrHandlerNotFound) {
			response.WriteNotFound(w, "handler not found")
			return
		}
		response.WriteInternalError(w, h.logger, "invoke.Read", err)
		return
	}

	result, err := h.sandbox.Invoke(r.Context(), packaged, sandbox.Request{
		QueryParams: parseOrderedQuery(r.URL.RawQuery),
	})
	if err != nil {
		if errors.Is(err, sandbox.ErrGuestFault) {
			h.logger.Warn("invoke: guest fault", "handler_id", id, "error", err.Error())
			response.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		response.WriteInternalError(w, h.logger, "invoke.Invoke", err)
		return
	}

	w.WriteHeader(int(result.Status))
	_, _ = w.Write([]byte(result.Body))
}

// parseOrderedQuery splits a raw query string on "&" then the first "="
// in each pair, percent-decoding both sides, preserving encounter order.
func parseOrderedQuery(raw string) []sandbox.KV {
	if raw == "" {
		return nil
	}
	pairs := strings.Split(raw, "&")
	out := make([]sandbox.KV, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		dk, err := url.QueryUnescape(key)
		if err != nil {
			dk = key
		}
		dv, err := url.QueryUnescape(value)
		if err != nil {
			dv = value
		}
		out = append(out, sandbox.KV{Key: dk, Value: dv})
	}
	return out
}
