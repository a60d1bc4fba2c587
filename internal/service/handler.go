package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/noops-dev/noops/internal/blobstore"
	"github.com/noops-dev/noops/internal/metastore"
	"github.com/noops-dev/noops/internal/packager"
)

// HandlerService implements the create-or-replace / read / delete
// operations of spec.md §4.7, combining C1 (blobstore), C2 (metastore)
// and C4 (packager) behind an ownership-scoped surface.
type HandlerService struct {
	pool     *metastore.Pool
	projects *metastore.ProjectRepository
	handlers *metastore.HandlerRepository
	blobs    *blobstore.Store
	pkg      *packager.Packager
}

// NewHandlerService constructs a HandlerService over the given stores.
func NewHandlerService(pool *metastore.Pool, projects *metastore.ProjectRepository, handlers *metastore.HandlerRepository, blobs *blobstore.Store, pkg *packager.Packager) *HandlerService {
	return &HandlerService{pool: pool, projects: projects, handlers: handlers, blobs: blobs, pkg: pkg}
}

// CreateOrReplace implements spec.md §4.7's seven-step sequence:
//  1. resolve the owning project
//  2. compute the fingerprint over the raw, pre-packaging bytes
//  3. look up any existing handler by (project, name)
//  4. package raw via the adapter
//  5. upsert the handler row, preserving its id across a replace
//  6. write the packaged bytes to the blob store — update in place if an
//     old handler existed, create otherwise
//  7. return the stored row
//
// Steps 5 and 6 run inside a single metastore transaction: Upsert and the
// blob write share one closure, so a blob-write failure rolls back the
// metadata change and the caller never observes a handler row with no
// backing blob.
func (s *HandlerService) CreateOrReplace(ctx context.Context, owner metastore.User, projectName, name, language string, raw []byte) (metastore.Handler, error) {
	if !ValidateName(name) {
		return metastore.Handler{}, ErrInvalidName
	}

	project, err := s.resolveProject(ctx, owner, projectName)
	if err != nil {
		return metastore.Handler{}, err
	}

	fingerprint := Fingerprint(raw)

	existing, err := s.handlers.FindByProjectAndName(ctx, project.ID, name)
	if err != nil && !errors.Is(err, metastore.ErrNotFound) {
		return metastore.Handler{}, fmt.Errorf("service: find handler: %w", err)
	}

	packaged, err := s.pkg.Package(raw)
	if err != nil {
		return metastore.Handler{}, fmt.Errorf("%w", err)
	}

	h := metastore.Handler{
		Name:        name,
		Language:    language,
		Fingerprint: fingerprint,
		ProjectID:   project.ID,
	}
	if existing != nil {
		h.ID = existing.ID
	} else {
		h.ID = uuid.NewString()
	}

	err = s.pool.WithTx(ctx, func(tx metastore.Tx) error {
		id, err := s.handlers.Upsert(ctx, tx, h)
		if err != nil {
			return err
		}
		h.ID = id
		if existing != nil {
			return s.blobs.Update(h.ID, packaged)
		}
		return s.blobs.Create(h.ID, packaged)
	})
	if err != nil {
		return metastore.Handler{}, fmt.Errorf("service: store handler: %w", err)
	}
	return h, nil
}

// Get resolves a handler by (project, name), scoped to owner.
func (s *HandlerService) Get(ctx context.Context, owner metastore.User, projectName, name string) (metastore.Handler, error) {
	project, err := s.resolveProject(ctx, owner, projectName)
	if err != nil {
		return metastore.Handler{}, err
	}
	h, err := s.handlers.FindByProjectAndName(ctx, project.ID, name)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return metastore.Handler{}, ErrHandlerNotFound
		}
		return metastore.Handler{}, fmt.Errorf("service: find handler: %w", err)
	}
	return *h, nil
}

// Delete removes a handler's metadata row and its blob, metadata first.
// A blob-delete failure after a successful metadata delete is logged but
// does not fail the call: an orphan blob is inert dead weight, but an
// orphan metadata row pointing at a missing blob would break every future
// invocation of that handler name.
func (s *HandlerService) Delete(ctx context.Context, owner metastore.User, projectName, name string) error {
	project, err := s.resolveProject(ctx, owner, projectName)
	if err != nil {
		return err
	}
	h, err := s.handlers.FindByProjectAndName(ctx, project.ID, name)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return ErrHandlerNotFound
		}
		return fmt.Errorf("service: find handler: %w", err)
	}

	if err := s.handlers.Delete(ctx, h.ID); err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return ErrHandlerNotFound
		}
		return fmt.Errorf("service: delete handler: %w", err)
	}

	if err := s.blobs.Delete(h.ID); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		slog.Warn("service: orphan blob after handler delete", "handler_id", h.ID, "error", err.Error())
	}
	return nil
}

// Read returns the packaged guest bytes for a handler, for invocation.
func (s *HandlerService) Read(ctx context.Context, owner metastore.User, projectName, name string) (metastore.Handler, []byte, error) {
	h, err := s.Get(ctx, owner, projectName, name)
	if err != nil {
		return metastore.Handler{}, nil, err
	}
	packaged, err := s.blobs.Read(h.ID)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return metastore.Handler{}, nil, ErrHandlerNotFound
		}
		return metastore.Handler{}, nil, fmt.Errorf("service: read blob: %w", err)
	}
	return h, packaged, nil
}

// ReadByID resolves a handler and its packaged blob by id alone, with no
// ownership check: the invocation route (spec.md §4.8's `GET /:handler`)
// is public and addresses handlers directly by id.
func (s *HandlerService) ReadByID(ctx context.Context, id string) (metastore.Handler, []byte, error) {
	h, err := s.handlers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return metastore.Handler{}, nil, ErrHandlerNotFound
		}
		return metastore.Handler{}, nil, fmt.Errorf("service: find handler: %w", err)
	}
	packaged, err := s.blobs.Read(h.ID)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return metastore.Handler{}, nil, ErrHandlerNotFound
		}
		return metastore.Handler{}, nil, fmt.Errorf("service: read blob: %w", err)
	}
	return *h, packaged, nil
}

func (s *HandlerService) resolveProject(ctx context.Context, owner metastore.User, name string) (*metastore.Project, error) {
	p, err := s.projects.FindByOwnerAndName(ctx, owner.ID, name)
	if err != nil {
		if errors.Is(err, metastore.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("service: find project: %w", err)
	}
	return p, nil
}
