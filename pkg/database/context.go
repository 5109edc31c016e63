package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations repositories depend on.
// Both *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code runs
// inside a per-row import transaction or directly against the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type contextKey string

// querierKey is the context key for the scoped database handle.
const querierKey contextKey = "querier"

// WithQuerier stores a database handle (usually a transaction) in the context.
// Repositories pick it up via GetQuerier, so all writes of one imported row
// share one transaction without threading a tx through every call.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// GetQuerier retrieves the scoped database handle from context.
// Returns nil and false if not present.
func GetQuerier(ctx context.Context) (Querier, bool) {
	q, ok := ctx.Value(querierKey).(Querier)
	return q, ok
}
