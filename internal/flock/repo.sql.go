package flock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shared"
)

// Queries runs batch SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

const batchColumns = `id, farm_id, code, breed, shed_id, initial_count, current_count, state, unit_price, intake_date, created_at, updated_at`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	var state string
	err := row.Scan(&b.ID, &b.FarmID, &b.Code, &b.Breed, &b.ShedID, &b.InitialCount, &b.CurrentCount, &state, &b.UnitPrice, &b.IntakeDate, &b.CreatedAt, &b.UpdatedAt)
	b.State = State(state)
	return b, err
}

// GetBatch loads a batch scoped to the farm.
func (q *Queries) GetBatch(ctx context.Context, batchID, farmID int64) (Batch, error) {
	row := q.db.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1 AND farm_id=$2`, batchID, farmID)
	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return b, err
}

// GetBatchForUpdate locks the batch row so concurrent decrements serialize.
func (q *Queries) GetBatchForUpdate(ctx context.Context, batchID, farmID int64) (Batch, error) {
	row := q.db.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1 AND farm_id=$2 FOR UPDATE`, batchID, farmID)
	b, err := scanBatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return b, err
}

// InsertBatch creates a batch row and returns it with its id.
func (q *Queries) InsertBatch(ctx context.Context, b Batch) (Batch, error) {
	err := q.db.QueryRow(ctx, `
		INSERT INTO batches (farm_id, code, breed, shed_id, initial_count, current_count, state, unit_price, intake_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		b.FarmID, b.Code, b.Breed, b.ShedID, b.InitialCount, b.CurrentCount, string(b.State), b.UnitPrice, b.IntakeDate, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	return b, err
}

// UpdateBatchCount writes the new count.
func (q *Queries) UpdateBatchCount(ctx context.Context, batchID, farmID int64, count int) error {
	tag, err := q.db.Exec(ctx, `UPDATE batches SET current_count=$3, updated_at=NOW() WHERE id=$1 AND farm_id=$2`, batchID, farmID, count)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return nil
}

// UpdateBatchState writes the new lifecycle state.
func (q *Queries) UpdateBatchState(ctx context.Context, batchID, farmID int64, state State) error {
	tag, err := q.db.Exec(ctx, `UPDATE batches SET state=$3, updated_at=NOW() WHERE id=$1 AND farm_id=$2`, batchID, farmID, string(state))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return nil
}

// DeleteBatch removes a batch row.
func (q *Queries) DeleteBatch(ctx context.Context, batchID, farmID int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM batches WHERE id=$1 AND farm_id=$2`, batchID, farmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return nil
}

// DeleteAgendaForBatch removes the batch's agenda events.
func (q *Queries) DeleteAgendaForBatch(ctx context.Context, batchID, farmID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM agenda_events WHERE batch_id=$1 AND farm_id=$2`, batchID, farmID)
	return err
}

// DeleteCostEntriesForBatch removes the batch's cost entries.
func (q *Queries) DeleteCostEntriesForBatch(ctx context.Context, batchID, farmID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cost_entries WHERE batch_id=$1 AND farm_id=$2`, batchID, farmID)
	return err
}

// DeleteHealthEventsForBatch removes the batch's health events.
func (q *Queries) DeleteHealthEventsForBatch(ctx context.Context, batchID, farmID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM health_events WHERE batch_id=$1 AND farm_id=$2`, batchID, farmID)
	return err
}

// CountSalesForBatch counts the sales recorded against the batch.
func (q *Queries) CountSalesForBatch(ctx context.Context, batchID, farmID int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE batch_id=$1 AND farm_id=$2`, batchID, farmID).Scan(&n)
	return n, err
}

// ListBatches returns the farm's batches, newest intake first.
func (q *Queries) ListBatches(ctx context.Context, farmID int64) ([]Batch, error) {
	rows, err := q.db.Query(ctx, `SELECT `+batchColumns+` FROM batches WHERE farm_id=$1 ORDER BY intake_date DESC, id DESC`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
