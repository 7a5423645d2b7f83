package sales

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/health"
	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shed"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool    *pgxpool.Pool
	queries *Queries
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: NewQueries(pool)}
}

// txRepo binds the sale, withdrawal, batch, and shed query sets to one
// transaction.
type txRepo struct {
	*Queries
	events  *health.Queries
	batches *flock.Queries
	sheds   *shed.Queries
}

func newTxRepo(tx pgx.Tx) txRepo {
	return txRepo{
		Queries: NewQueries(tx),
		events:  health.NewQueries(tx),
		batches: flock.NewQueries(tx),
		sheds:   shed.NewQueries(tx),
	}
}

func (t txRepo) MaxWithdrawalEnd(ctx context.Context, batchID, farmID int64) (*time.Time, error) {
	return t.events.MaxWithdrawalEnd(ctx, batchID, farmID)
}

func (t txRepo) GetBatchForUpdate(ctx context.Context, batchID, farmID int64) (flock.Batch, error) {
	return t.batches.GetBatchForUpdate(ctx, batchID, farmID)
}

func (t txRepo) InsertBatch(ctx context.Context, b flock.Batch) (flock.Batch, error) {
	return t.batches.InsertBatch(ctx, b)
}

func (t txRepo) UpdateBatchCount(ctx context.Context, batchID, farmID int64, count int) error {
	return t.batches.UpdateBatchCount(ctx, batchID, farmID, count)
}

func (t txRepo) UpdateBatchState(ctx context.Context, batchID, farmID int64, state flock.State) error {
	return t.batches.UpdateBatchState(ctx, batchID, farmID, state)
}

func (t txRepo) DeleteBatch(ctx context.Context, batchID, farmID int64) error {
	return t.batches.DeleteBatch(ctx, batchID, farmID)
}

func (t txRepo) DeleteAgendaForBatch(ctx context.Context, batchID, farmID int64) error {
	return t.batches.DeleteAgendaForBatch(ctx, batchID, farmID)
}

func (t txRepo) GetShedForUpdate(ctx context.Context, shedID, farmID int64) (shed.Shed, error) {
	return t.sheds.GetShedForUpdate(ctx, shedID, farmID)
}

func (t txRepo) UpdateShedState(ctx context.Context, shedID, farmID int64, state shed.State, batchID *int64, availableAt *time.Time) error {
	return t.sheds.UpdateShedState(ctx, shedID, farmID, state, batchID, availableAt)
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepo(tx))
	})
}

// GetSale loads a sale scoped to the farm.
func (r *Repository) GetSale(ctx context.Context, saleID, farmID int64) (Sale, error) {
	return r.queries.GetSale(ctx, saleID, farmID)
}

// ListSales returns sales for the farm.
func (r *Repository) ListSales(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Sale, error) {
	return r.queries.ListSales(ctx, farmID, batchID, limit)
}
