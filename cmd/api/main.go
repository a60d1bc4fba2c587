// Package main is the entry point for the noops API server: the
// composition root wiring config, storage, sandbox, and services into
// the HTTP surface, grounded on
// _examples/fcavalcantirj-solvr/backend/cmd/api/main.go's shape (load
// config, build dependencies, log startup, serve with graceful
// shutdown), trimmed of the teacher's background-job wiring since this
// server has none.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noops-dev/noops/internal/api"
	"github.com/noops-dev/noops/internal/blobstore"
	"github.com/noops-dev/noops/internal/config"
	"github.com/noops-dev/noops/internal/identity"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/packager"
	"github.com/noops-dev/noops/internal/sandbox"
	"github.com/noops-dev/noops/internal/service"
	"github.com/noops-dev/noops/internal/token"
)

func main() {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	pool, err := metastore.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("open metastore: %v", err)
	}
	defer pool.Close()

	blobs, err := blobstore.New(cfg.BlobPrefix)
	if err != nil {
		log.Fatalf("open blobstore: %v", err)
	}

	pkg, err := packager.New(cfg.AdapterPath)
	if err != nil {
		log.Fatalf("load adapter: %v", err)
	}

	sandboxCfg := sandbox.Config{
		Deadline:         cfg.InvocationDeadline,
		MemoryLimitPages: uint32(cfg.InvocationMemoryCapMiB * 16), // 64KiB pages
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
	}
	sb, err := sandbox.New(ctx, sandboxCfg)
	if err != nil {
		log.Fatalf("init sandbox: %v", err)
	}
	defer sb.Close(context.Background())

	users := metastore.NewUserRepository(pool)
	projects := metastore.NewProjectRepository(pool)
	handlerRows := metastore.NewHandlerRepository(pool)

	codec := token.NewCodec(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	provider := identity.NewGitHubProvider(cfg.GitHubAPIBaseURL)

	deps := api.Deps{
		Auth:           service.NewAuthService(provider, users, codec),
		Projects:       service.NewProjectService(pool, projects, handlerRows, blobs),
		Handlers:       service.NewHandlerService(pool, projects, handlerRows, blobs, pkg),
		Users:          users,
		TokenCodec:     codec,
		Sandbox:        sb,
		PublicBaseURL:  cfg.PublicBaseURL,
		BodyLimitBytes: cfg.BodyLimitBytes,
		Logger:         logger,
	}
	router := api.Router(deps)

	config.LogStartupConfig(logger, cfg)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  api.ReadTimeout,
		WriteTimeout: api.WriteTimeout,
		IdleTimeout:  api.IdleTimeout,
	}

	go func() {
		logger.Info("noops listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	logger.Info("server stopped")
}
