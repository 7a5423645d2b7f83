package flock

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shed"
)

// Repository persists batches in PostgreSQL.
type Repository struct {
	pool    *pgxpool.Pool
	queries *Queries
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: NewQueries(pool)}
}

// txRepo binds the batch, shed, cost, and agenda query sets to one
// transaction so orchestration sees a single atomic surface.
type txRepo struct {
	*Queries
	sheds    *shed.Queries
	costs    *costs.Queries
	sanitary *sanitary.Queries
}

func newTxRepo(tx pgx.Tx) txRepo {
	return txRepo{
		Queries:  NewQueries(tx),
		sheds:    shed.NewQueries(tx),
		costs:    costs.NewQueries(tx),
		sanitary: sanitary.NewQueries(tx),
	}
}

func (t txRepo) GetShedForUpdate(ctx context.Context, shedID, farmID int64) (shed.Shed, error) {
	return t.sheds.GetShedForUpdate(ctx, shedID, farmID)
}

func (t txRepo) UpdateShedState(ctx context.Context, shedID, farmID int64, state shed.State, batchID *int64, availableAt *time.Time) error {
	return t.sheds.UpdateShedState(ctx, shedID, farmID, state, batchID, availableAt)
}

func (t txRepo) BatchExists(ctx context.Context, batchID, farmID int64) (bool, error) {
	return t.costs.BatchExists(ctx, batchID, farmID)
}

func (t txRepo) ShedExists(ctx context.Context, shedID, farmID int64) (bool, error) {
	return t.costs.ShedExists(ctx, shedID, farmID)
}

func (t txRepo) InsertEntry(ctx context.Context, e costs.Entry) (int64, error) {
	return t.costs.InsertEntry(ctx, e)
}

func (t txRepo) InsertAgendaEvent(ctx context.Context, e sanitary.AgendaEvent) (int64, error) {
	return t.sanitary.InsertAgendaEvent(ctx, e)
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepo(tx))
	})
}

// GetBatch loads a batch scoped to the farm.
func (r *Repository) GetBatch(ctx context.Context, batchID, farmID int64) (Batch, error) {
	return r.queries.GetBatch(ctx, batchID, farmID)
}

// ListBatches returns the farm's batches.
func (r *Repository) ListBatches(ctx context.Context, farmID int64) ([]Batch, error) {
	return r.queries.ListBatches(ctx, farmID)
}
