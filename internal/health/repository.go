package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shed"
	"github.com/farmcore/farmcore/internal/stock"
)

// Repository persists health events in PostgreSQL.
type Repository struct {
	pool    *pgxpool.Pool
	queries *Queries
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: NewQueries(pool)}
}

// txRepo binds the event, batch, shed, stock, and cost query sets to one
// transaction.
type txRepo struct {
	*Queries
	batches *flock.Queries
	sheds   *shed.Queries
	items   *stock.Queries
	costs   *costs.Queries
}

func newTxRepo(tx pgx.Tx) txRepo {
	return txRepo{
		Queries: NewQueries(tx),
		batches: flock.NewQueries(tx),
		sheds:   shed.NewQueries(tx),
		items:   stock.NewQueries(tx),
		costs:   costs.NewQueries(tx),
	}
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

func (t txRepo) GetItemForUpdate(ctx context.Context, itemID, farmID int64) (stock.Item, error) {
	return t.items.GetItemForUpdate(ctx, itemID, farmID)
}

func (t txRepo) UpdateItemStock(ctx context.Context, itemID, farmID int64, qty, unitCost float64) error {
	return t.items.UpdateItemStock(ctx, itemID, farmID, qty, unitCost)
}

func (t txRepo) InsertMovement(ctx context.Context, m stock.Movement) (int64, error) {
	return t.items.InsertMovement(ctx, m)
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

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepo(tx))
	})
}

// ListEvents returns events for the farm.
func (r *Repository) ListEvents(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Event, error) {
	return r.queries.ListEvents(ctx, farmID, batchID, limit)
}
