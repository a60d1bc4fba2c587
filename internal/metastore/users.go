package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// User is a locally known account, keyed by an external identity
// provider's id.
type User struct {
	ID            string
	Email         string
	ExternalID    string
	ExternalToken string
}

const userColumns = "id, email, external_id, external_token"

// UserRepository persists User rows.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository constructs a UserRepository over pool.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user. Fails with ErrDuplicate if id or external_id
// already exists.
func (r *UserRepository) Create(ctx context.Context, u User) error {
	_, err := r.pool.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.ExternalID, u.ExternalToken)
	if err != nil {
		if isUniqueViolation(err) {
			LogDuplicateKeyError(ctx, "Create", "users", "external_id")
			return ErrDuplicate
		}
		LogQueryError(ctx, "Create", "users", err)
		return fmt.Errorf("metastore: create user: %w", err)
	}
	return nil
}

// UpdateExternalToken refreshes the stored provider token for an existing
// user, used on re-login.
func (r *UserRepository) UpdateExternalToken(ctx context.Context, id, externalToken string) error {
	res, err := r.pool.ExecContext(ctx,
		`UPDATE users SET external_token = ? WHERE id = ?`, externalToken, id)
	if err != nil {
		LogQueryError(ctx, "UpdateExternalToken", "users", err)
		return fmt.Errorf("metastore: update user token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		LogNotFound(ctx, "UpdateExternalToken", "users", id)
		return ErrNotFound
	}
	return nil
}

// FindByID reads a user by its opaque id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(ctx, row, "FindByID", id)
}

// FindByExternalID reads a user by the identity provider's id.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	row := r.pool.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	return scanUser(ctx, row, "FindByExternalID", externalID)
}

func scanUser(ctx context.Context, row *sql.Row, op, id string) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.ExternalID, &u.ExternalToken)
	if errors.Is(err, sql.ErrNoRows) {
		LogNotFound(ctx, op, "users", id)
		return nil, ErrNotFound
	}
	if err != nil {
		LogQueryError(ctx, op, "users", err)
		return nil, fmt.Errorf("metastore: %s user: %w", op, err)
	}
	return &u, nil
}
