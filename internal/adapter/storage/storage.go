package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrOptimisticLock = errors.New("optimistic lock conflict")
)

// sqlExecutor matches both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
