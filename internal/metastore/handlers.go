package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Handler is a named, versioned guest binary owned by a project.
// (project_id, name) is unique; id is the key BlobStore uses, and it is
// preserved across an Upsert so a replace-by-name never orphans a blob.
type Handler struct {
	ID          string
	Name        string
	Language    string
	Fingerprint string
	ProjectID   string
}

const handlerColumns = "id, name, language, fingerprint, project_id"

// HandlerRepository persists Handler rows.
type HandlerRepository struct {
	pool *Pool
}

// NewHandlerRepository constructs a HandlerRepository over pool.
func NewHandlerRepository(pool *Pool) *HandlerRepository {
	return &HandlerRepository{pool: pool}
}

// Upsert inserts h, or on a (project_id, name) conflict updates language
// and fingerprint in place while preserving the existing row's id — the
// id is what BlobStore keys on, so the same id must survive a replace.
// Accepts an explicit Queryer so callers can run it inside a
// Pool.WithTx alongside a blob write that must commit-or-rollback
// together with it.
func (r *HandlerRepository) Upsert(ctx context.Context, q Queryer, h Handler) (id string, err error) {
	_, err = q.ExecContext(ctx,
		`INSERT INTO handlers (`+handlerColumns+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, name) DO UPDATE SET
		   language = excluded.language,
		   fingerprint = excluded.fingerprint`,
		h.ID, h.Name, h.Language, h.Fingerprint, h.ProjectID)
	if err != nil {
		LogQueryError(ctx, "Upsert", "handlers", err)
		return "", fmt.Errorf("metastore: upsert handler: %w", err)
	}

	row := q.QueryRowContext(ctx,
		`SELECT id FROM handlers WHERE project_id = ? AND name = ?`, h.ProjectID, h.Name)
	if err := row.Scan(&id); err != nil {
		LogQueryError(ctx, "Upsert", "handlers", err)
		return "", fmt.Errorf("metastore: upsert handler: read back id: %w", err)
	}
	return id, nil
}

// FindByID reads a handler by its opaque id, independent of project —
// used by the public invocation route, which addresses handlers directly
// by id rather than by (project, name).
func (r *HandlerRepository) FindByID(ctx context.Context, id string) (*Handler, error) {
	row := r.pool.QueryRowContext(ctx,
		`SELECT `+handlerColumns+` FROM handlers WHERE id = ?`, id)
	return scanHandler(ctx, row, "FindByID", id)
}

// FindByProjectAndName reads a handler by its owning project and name.
func (r *HandlerRepository) FindByProjectAndName(ctx context.Context, projectID, name string) (*Handler, error) {
	row := r.pool.QueryRowContext(ctx,
		`SELECT `+handlerColumns+` FROM handlers WHERE project_id = ? AND name = ?`,
		projectID, name)
	return scanHandler(ctx, row, "FindByProjectAndName", name)
}

// ListByProject returns every handler belonging to projectID, ordered by
// name for deterministic DTO rendering.
func (r *HandlerRepository) ListByProject(ctx context.Context, projectID string) ([]Handler, error) {
	rows, err := r.pool.QueryContext(ctx,
		`SELECT `+handlerColumns+` FROM handlers WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		LogQueryError(ctx, "ListByProject", "handlers", err)
		return nil, fmt.Errorf("metastore: list handlers: %w", err)
	}
	defer rows.Close()

	var out []Handler
	for rows.Next() {
		var h Handler
		if err := rows.Scan(&h.ID, &h.Name, &h.Language, &h.Fingerprint, &h.ProjectID); err != nil {
			LogQueryError(ctx, "ListByProject", "handlers", err)
			return nil, fmt.Errorf("metastore: scan handler: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metastore: list handlers: %w", err)
	}
	return out, nil
}

// Delete removes a handler row by id.
func (r *HandlerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.ExecContext(ctx, `DELETE FROM handlers WHERE id = ?`, id)
	if err != nil {
		LogQueryError(ctx, "Delete", "handlers", err)
		return fmt.Errorf("metastore: delete handler: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		LogNotFound(ctx, "Delete", "handlers", id)
		return ErrNotFound
	}
	return nil
}

func scanHandler(ctx context.Context, row *sql.Row, op, key string) (*Handler, error) {
	var h Handler
	err := row.Scan(&h.ID, &h.Name, &h.Language, &h.Fingerprint, &h.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		LogNotFound(ctx, op, "handlers", key)
		return nil, ErrNotFound
	}
	if err != nil {
		LogQueryError(ctx, op, "handlers", err)
		return nil, fmt.Errorf("metastore: %s handler: %w", op, err)
	}
	return &h, nil
}
