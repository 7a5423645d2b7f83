package shed

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Repository persists sheds in PostgreSQL.
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

// CreateShed inserts a new shed.
func (r *Repository) CreateShed(ctx context.Context, sh Shed) (Shed, error) {
	return r.queries.InsertShed(ctx, sh)
}

// GetShed loads a shed scoped to the farm.
func (r *Repository) GetShed(ctx context.Context, shedID, farmID int64) (Shed, error) {
	return r.queries.GetShed(ctx, shedID, farmID)
}

// ListSheds lists the farm's sheds.
func (r *Repository) ListSheds(ctx context.Context, farmID int64) ([]Shed, error) {
	return r.queries.ListSheds(ctx, farmID)
}

// DeleteShed removes a shed row.
func (r *Repository) DeleteShed(ctx context.Context, shedID, farmID int64) error {
	return r.queries.DeleteShed(ctx, shedID, farmID)
}

// HasBatches reports whether any batch references the shed.
func (r *Repository) HasBatches(ctx context.Context, shedID, farmID int64) (bool, error) {
	return r.queries.HasBatches(ctx, shedID, farmID)
}

// ReleaseDue frees all overdue maintenance sheds.
func (r *Repository) ReleaseDue(ctx context.Context, now time.Time) (int64, error) {
	return r.queries.ReleaseDue(ctx, now)
}
