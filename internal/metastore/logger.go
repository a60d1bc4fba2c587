package metastore

import (
	"context"
	"log/slog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// LogQueryError logs an unexpected query failure.
func LogQueryError(ctx context.Context, op, table string, err error) {
	attrs := []any{"op", op, "table", table, "error", err.Error()}
	if reqID := ctx.Value(requestIDKey); reqID != nil {
		attrs = append(attrs, "request_id", reqID)
	}
	slog.Error("metastore query failed", attrs...)
}

// LogTransactionError logs a transaction-level failure.
func LogTransactionError(ctx context.Context, op string, err error) {
	attrs := []any{"op", op, "error", err.Error()}
	if reqID := ctx.Value(requestIDKey); reqID != nil {
		attrs = append(attrs, "request_id", reqID)
	}
	slog.Error("metastore transaction failed", attrs...)
}

// LogDuplicateKeyError logs an expected uniqueness-constraint rejection.
// Business logic, not a system error, so it's logged at Info.
func LogDuplicateKeyError(ctx context.Context, op, table, constraint string) {
	attrs := []any{"op", op, "table", table, "constraint", constraint}
	if reqID := ctx.Value(requestIDKey); reqID != nil {
		attrs = append(attrs, "request_id", reqID)
	}
	slog.Info("metastore duplicate key constraint", attrs...)
}

// LogNotFound logs a miss on an expected-absent lookup. Expected
// behavior, so it's logged at Debug.
func LogNotFound(ctx context.Context, op, table, id string) {
	attrs := []any{"op", op, "table", table, "id", id}
	if reqID := ctx.Value(requestIDKey); reqID != nil {
		attrs = append(attrs, "request_id", reqID)
	}
	slog.Debug("metastore resource not found", attrs...)
}
