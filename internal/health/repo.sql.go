package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Queries runs health event SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

// InsertHealthEvent appends one event row.
func (q *Queries) InsertHealthEvent(ctx context.Context, e Event) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO health_events (farm_id, batch_id, event_type, bird_count, item_id, quantity_used, notes, withdrawal_end, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		e.FarmID, e.BatchID, string(e.Type), e.BirdCount, e.ItemID, e.QuantityUsed, e.Notes, e.WithdrawalEnd, e.OccurredAt, e.CreatedAt,
	).Scan(&id)
	return id, err
}

// MaxWithdrawalEnd returns the latest withdrawal end recorded for the batch,
// or nil when no treatment carries one.
func (q *Queries) MaxWithdrawalEnd(ctx context.Context, batchID, farmID int64) (*time.Time, error) {
	var end *time.Time
	err := q.db.QueryRow(ctx, `
		SELECT MAX(withdrawal_end) FROM health_events
		WHERE batch_id=$1 AND farm_id=$2 AND withdrawal_end IS NOT NULL`,
		batchID, farmID).Scan(&end)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return end, err
}

// ListEvents returns events for the farm, newest first.
func (q *Queries) ListEvents(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Event, error) {
	sql := `SELECT id, farm_id, batch_id, event_type, bird_count, item_id, quantity_used, notes, withdrawal_end, occurred_at, created_at
		FROM health_events WHERE farm_id=$1`
	args := []any{farmID}
	if batchID != nil {
		args = append(args, *batchID)
		sql += ` AND batch_id=$2`
	}
	args = append(args, limit)
	if batchID != nil {
		sql += ` ORDER BY occurred_at DESC, id DESC LIMIT $3`
	} else {
		sql += ` ORDER BY occurred_at DESC, id DESC LIMIT $2`
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &e.FarmID, &e.BatchID, &typ, &e.BirdCount, &e.ItemID, &e.QuantityUsed, &e.Notes, &e.WithdrawalEnd, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
