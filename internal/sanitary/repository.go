package sanitary

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Repository persists sanitary data in PostgreSQL.
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

// GetPlan reads the farm's plan string.
func (r *Repository) GetPlan(ctx context.Context, farmID int64) (string, error) {
	return r.queries.GetPlan(ctx, farmID)
}

// UpsertPlan stores the farm's plan string.
func (r *Repository) UpsertPlan(ctx context.Context, farmID int64, plan string) error {
	return r.queries.UpsertPlan(ctx, farmID, plan)
}

// ListAgenda returns agenda events for the farm.
func (r *Repository) ListAgenda(ctx context.Context, farmID int64, batchID *int64, pendingOnly bool, limit int) ([]AgendaEvent, error) {
	return r.queries.ListAgenda(ctx, farmID, batchID, pendingOnly, limit)
}

// GetAgendaEvent loads one event scoped to the farm.
func (r *Repository) GetAgendaEvent(ctx context.Context, eventID, farmID int64) (AgendaEvent, error) {
	return r.queries.GetAgendaEvent(ctx, eventID, farmID)
}

// SetAgendaCompleted writes the completion flag.
func (r *Repository) SetAgendaCompleted(ctx context.Context, eventID, farmID int64, completed bool) error {
	return r.queries.SetAgendaCompleted(ctx, eventID, farmID, completed)
}

// ListDue returns pending events due before the horizon.
func (r *Repository) ListDue(ctx context.Context, before time.Time, limit int) ([]AgendaEvent, error) {
	return r.queries.ListDue(ctx, before, limit)
}
