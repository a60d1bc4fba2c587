package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/noops-dev/noops/internal/blobstore"
	"github.com/noops-dev/noops/internal/metastore"
)

// ProjectService orchestrates C2 (metastore) and C1 (blobstore) behind
// an ownership-scoped CRUD surface, per spec.md §4.7.
type ProjectService struct {
	pool     *metastore.Pool
	projects *metastore.ProjectRepository
	handlers *metastore.HandlerRepository
	blobs    *blobstore.Store
}

// NewProjectService constructs a ProjectService over the given stores.
func NewProjectService(pool *metastore.Pool, projects *metastore.ProjectRepository, handlers *metastore.HandlerRepository, blobs *blobstore.Store) *ProjectService {
	return &ProjectService{pool: pool, projects: projects, handlers: handlers, blobs: blobs}
}

// CreateProject creates a project owned by owner. Fails with
// ErrInvalidName or ErrProjectAlreadyExists.
func (s *ProjectService) CreateProject(ctx context.Context, owner metastore.User, name string) (metastore.Project, error) {
	if !ValidateName(name) {
		return metastore.Project{}, ErrInvalidName
	}

	p := metastore.Project{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: owner.ID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		if errors.Is(err, metastore.ErrDuplicate) {
			return metastore.Project{}, ErrProjectAlreadyExists
		}
		return metastore.Project{}, fmt.Errorf("service: create project: %w", err)
	}
	return p, nil
}

// GetProject resolves the named project owned by owner and the sorted
// list of its handlers. Fails with ErrProjectNotFound if owner does not
// own a project by that name (indistinguishable from a missing project).
func (s *ProjectService) GetProject(ctx context.Context, owner metastore.User, name string) (metastore.Project, []metastore.Handler, error) {
	project, err := s.resolveProject(ctx, owner, name)
	if err != nil {
		return metastore.Project{}, nil, err
	}

	handlers, err := s.handlers.ListByProject(ctx, project.ID)
	if err != nil {
		return metastore.Project{}, nil, fmt.Errorf("service: list handlers: %w", err)
	}
	return *project, handlers, nil
}

// DeleteProject removes project and every handler belonging to it (both
// metadata and blobs), ordered so a partial failure never leaves a
// referenced-but-missing child: blobs first, then handler rows, then the
// project row.
func (s *ProjectService) DeleteProject(ctx context.Context, owner metastore.User, name string) error {
	project, err := s.resolveProject(ctx, owner, name)
	if err != nil {
		return err
	}

	handlers, err := s.handlers.ListByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("service: list handlers: %w", err)
	}

	for _, h := range handlers {
		if err := s.blobs.Delete(h.ID); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			slog.Warn("service: orphan blob on project delete", "handler_id", h.ID, "error", err.Error())
		}
	}
	for _, h := range handlers {
		if err := s.handlers.Delete(ctx, h.ID); err != nil && !errors.Is(err, metastore.ErrNotFound) {
			return fmt.Errorf("service: delete handler %s: %w", h.ID, err)
		}
	}
	if err := s.projects.Delete(ctx, project.ID); err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("service: delete project: %w", err)
	}
	return nil
}

// resolveProject looks up a project by (owner, name), mapping every miss
// — including "exists but owned by someone else" — to ErrProjectNotFound.
func (s *ProjectService) resolveProject(ctx context.Context, owner metastore.User, name string) (*metastore.Project, error) {
	p, err := s.projects.FindByOwnerAndName(ctx, owner.ID, name)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("service: find project: %w", err)
	}
	return p, nil
}
