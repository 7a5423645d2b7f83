package tracking

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Repository persists growth records in PostgreSQL.
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

// ListRecords returns the batch's measurements.
func (r *Repository) ListRecords(ctx context.Context, batchID, farmID int64) ([]Record, error) {
	return r.queries.ListRecords(ctx, batchID, farmID)
}

// DeleteRecord removes one measurement.
func (r *Repository) DeleteRecord(ctx context.Context, recordID, farmID int64) error {
	return r.queries.DeleteRecord(ctx, recordID, farmID)
}
