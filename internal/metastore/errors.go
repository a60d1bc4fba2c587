package metastore

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a read-by-key finds no row.
	ErrNotFound = errors.New("metastore: not found")
	// ErrDuplicate is returned when a write would violate a unique index.
	ErrDuplicate = errors.New("metastore: duplicate")
)

// isUniqueViolation detects modernc.org/sqlite's phrasing of a UNIQUE
// constraint failure. Unlike pgx/Postgres ("duplicate key", "unique
// constraint"), sqlite's driver surfaces this as "UNIQUE constraint
// failed: <table>.<column>".
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
