package tracking

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shared"
)

// Queries runs growth record SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

const recordColumns = `id, farm_id, batch_id, week, avg_weight, feed_intake, notes, recorded_at, created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.FarmID, &r.BatchID, &r.Week, &r.AvgWeight, &r.FeedIntake, &r.Notes, &r.RecordedAt, &r.CreatedAt)
	return r, err
}

// BatchExists reports whether the batch resolves within the farm.
func (q *Queries) BatchExists(ctx context.Context, batchID, farmID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM batches WHERE id=$1 AND farm_id=$2)`,
		batchID, farmID).Scan(&exists)
	return exists, err
}

// WeekRecorded reports whether the batch week already has a measurement.
func (q *Queries) WeekRecorded(ctx context.Context, batchID, farmID int64, week int) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM growth_records WHERE batch_id=$1 AND farm_id=$2 AND week=$3)`,
		batchID, farmID, week).Scan(&exists)
	return exists, err
}

// InsertRecord creates a growth record row and returns its id.
func (q *Queries) InsertRecord(ctx context.Context, r Record) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO growth_records (farm_id, batch_id, week, avg_weight, feed_intake, notes, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		r.FarmID, r.BatchID, r.Week, r.AvgWeight, r.FeedIntake, r.Notes, r.RecordedAt, r.CreatedAt,
	).Scan(&id)
	return id, err
}

// ListRecords returns the batch's measurements in week order.
func (q *Queries) ListRecords(ctx context.Context, batchID, farmID int64) ([]Record, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+recordColumns+` FROM growth_records WHERE batch_id=$1 AND farm_id=$2 ORDER BY week`,
		batchID, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRecord removes a growth record row.
func (q *Queries) DeleteRecord(ctx context.Context, recordID, farmID int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM growth_records WHERE id=$1 AND farm_id=$2`, recordID, farmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "growth record %d not found", recordID)
	}
	return nil
}
