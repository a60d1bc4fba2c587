// Package api assembles the HTTP Surface (C8): middleware ordering, route
// table, and wiring from services to handlers. Route logic itself lives
// in the handlers subpackage.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/noops-dev/noops/internal/api/handlers"
	apimiddleware "github.com/noops-dev/noops/internal/api/middleware"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/sandbox"
	"github.com/noops-dev/noops/internal/service"
	"github.com/noops-dev/noops/internal/token"
)

// Deps bundles every dependency Router needs to wire the route table.
type Deps struct {
	Auth            *service.AuthService
	Projects        *service.ProjectService
	Handlers        *service.HandlerService
	Users           *metastore.UserRepository
	TokenCodec      *token.Codec
	Sandbox         *sandbox.Sandbox
	PublicBaseURL   string
	BodyLimitBytes  int64
	Logger          *slog.Logger
}

// Router builds the full chi.Mux, wiring middleware in the order:
// request id -> RealIP -> Recoverer -> CORS -> body limit, then routes.
// Bearer auth is applied per-group, not globally, since the invocation
// and login routes are unauthenticated.
func Router(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		MaxAge:           300,
		AllowCredentials: false,
	}))
	r.Use(apimiddleware.BodyLimit(d.BodyLimitBytes))

	authHandler := handlers.NewAuthHandler(d.Auth, d.Logger)
	projectHandler := handlers.NewProjectHandler(d.Projects, d.PublicBaseURL, d.Logger)
	handlerHandler := handlers.NewHandlerHandler(d.Handlers, d.PublicBaseURL, d.Logger)
	invokeHandler := handlers.NewInvokeHandler(d.Handlers, d.Sandbox, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.Auth(d.TokenCodec, d.Users))

			r.Route("/{project}", func(r chi.Router) {
				r.Post("/", projectHandler.Create)
				r.Get("/", projectHandler.Get)
				r.Delete("/", projectHandler.Delete)

				r.Route("/{handler}", func(r chi.Router) {
					r.Put("/", handlerHandler.Put)
					r.Get("/", handlerHandler.Get)
					r.Delete("/", handlerHandler.Delete)
				})
			})
		})
	})

	r.Get("/{handler}", invokeHandler.Invoke)

	return r
}

// ReadTimeout, WriteTimeout and IdleTimeout are the http.Server timeouts
// the composition root wires in.
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 30 * time.Second
	IdleTimeout  = 60 * time.Second
)
