package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Project belongs to exactly one owning user; (owner_id, name) is unique.
type Project struct {
	ID      string
	Name    string
	OwnerID string
}

const projectColumns = "id, name, owner_id"

// ProjectRepository persists Project rows.
type ProjectRepository struct {
	pool *Pool
}

// NewProjectRepository constructs a ProjectRepository over pool.
func NewProjectRepository(pool *Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create inserts a new project. Fails with ErrDuplicate if
// (owner_id, name) already exists.
func (r *ProjectRepository) Create(ctx context.Context, p Project) error {
	_, err := r.pool.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.OwnerID)
	if err != nil {
		if isUniqueViolation(err) {
			LogDuplicateKeyError(ctx, "Create", "projects", "owner_id,name")
			return ErrDuplicate
		}
		LogQueryError(ctx, "Create", "projects", err)
		return fmt.Errorf("metastore: create project: %w", err)
	}
	return nil
}

// FindByOwnerAndName reads a project by its owner and name. This is the
// sole lookup path for authorization: a miss here is indistinguishable
// from "exists but not owned by this user" by design.
func (r *ProjectRepository) FindByOwnerAndName(ctx context.Context, ownerID, name string) (*Project, error) {
	row := r.pool.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_id = ? AND name = ?`,
		ownerID, name)
	return scanProject(ctx, row, "FindByOwnerAndName", name)
}

// Delete removes a project row by id.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		LogQueryError(ctx, "Delete", "projects", err)
		return fmt.Errorf("metastore: delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		LogNotFound(ctx, "Delete", "projects", id)
		return ErrNotFound
	}
	return nil
}

func scanProject(ctx context.Context, row *sql.Row, op, key string) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		LogNotFound(ctx, op, "projects", key)
		return nil, ErrNotFound
	}
	if err != nil {
		LogQueryError(ctx, op, "projects", err)
		return nil, fmt.Errorf("metastore: %s project: %w", op, err)
	}
	return &p, nil
}
