package costs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Repository persists cost entries in PostgreSQL.
type Repository struct {
	pool    *pgxpool.Pool
	queries *Queries
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: NewQueries(pool)}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewQueries(tx))
	})
}

// ListEntries returns entries matching the filter.
func (r *Repository) ListEntries(ctx context.Context, f Filter) ([]Entry, error) {
	return r.queries.ListEntries(ctx, f)
}

// SummarizeByCategory totals amounts per category.
func (r *Repository) SummarizeByCategory(ctx context.Context, farmID int64, batchID *int64) ([]CategoryTotal, error) {
	return r.queries.SummarizeByCategory(ctx, farmID, batchID)
}
