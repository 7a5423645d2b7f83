package stock

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Repository persists stock data in PostgreSQL.
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

// CreateItem inserts a new item.
func (r *Repository) CreateItem(ctx context.Context, item Item) (Item, error) {
	return r.queries.InsertItem(ctx, item)
}

// GetItem loads an item scoped to the farm.
func (r *Repository) GetItem(ctx context.Context, itemID, farmID int64) (Item, error) {
	return r.queries.GetItem(ctx, itemID, farmID)
}

// ListItems lists the farm's inventory.
func (r *Repository) ListItems(ctx context.Context, farmID int64) ([]Item, error) {
	return r.queries.ListItems(ctx, farmID)
}

// DeleteItem removes an item row.
func (r *Repository) DeleteItem(ctx context.Context, itemID, farmID int64) error {
	return r.queries.DeleteItem(ctx, itemID, farmID)
}

// HasMovements reports whether the item has ledger history.
func (r *Repository) HasMovements(ctx context.Context, itemID, farmID int64) (bool, error) {
	return r.queries.HasMovements(ctx, itemID, farmID)
}

// ListMovements returns recent ledger lines.
func (r *Repository) ListMovements(ctx context.Context, itemID, farmID int64, limit int) ([]Movement, error) {
	return r.queries.ListMovements(ctx, itemID, farmID, limit)
}
