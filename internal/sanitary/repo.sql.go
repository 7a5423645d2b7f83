package sanitary

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shared"
)

// Queries runs sanitary SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

// InsertAgendaEvent appends one agenda event.
func (q *Queries) InsertAgendaEvent(ctx context.Context, e AgendaEvent) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO agenda_events (farm_id, batch_id, description, due_at, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.FarmID, e.BatchID, e.Description, e.DueAt, e.Completed, e.CreatedAt,
	).Scan(&id)
	return id, err
}

// GetPlan reads the farm's plan string; empty when none is stored.
func (q *Queries) GetPlan(ctx context.Context, farmID int64) (string, error) {
	var plan string
	err := q.db.QueryRow(ctx, `SELECT sanitary_plan FROM farm_settings WHERE farm_id=$1`, farmID).Scan(&plan)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return plan, err
}

// UpsertPlan stores the farm's plan string.
func (q *Queries) UpsertPlan(ctx context.Context, farmID int64, plan string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO farm_settings (farm_id, sanitary_plan, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (farm_id) DO UPDATE SET sanitary_plan=EXCLUDED.sanitary_plan, updated_at=NOW()`,
		farmID, plan)
	return err
}

const agendaColumns = `id, farm_id, batch_id, description, due_at, completed, created_at`

func scanAgendaEvent(row pgx.Row) (AgendaEvent, error) {
	var e AgendaEvent
	err := row.Scan(&e.ID, &e.FarmID, &e.BatchID, &e.Description, &e.DueAt, &e.Completed, &e.CreatedAt)
	return e, err
}

// ListAgenda returns agenda events for the farm, soonest first.
func (q *Queries) ListAgenda(ctx context.Context, farmID int64, batchID *int64, pendingOnly bool, limit int) ([]AgendaEvent, error) {
	sql := `SELECT ` + agendaColumns + ` FROM agenda_events WHERE farm_id=$1`
	args := []any{farmID}
	if batchID != nil {
		args = append(args, *batchID)
		sql += ` AND batch_id=$2`
	}
	if pendingOnly {
		sql += ` AND NOT completed`
	}
	args = append(args, limit)
	if batchID != nil {
		sql += ` ORDER BY due_at, id LIMIT $3`
	} else {
		sql += ` ORDER BY due_at, id LIMIT $2`
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AgendaEvent
	for rows.Next() {
		e, err := scanAgendaEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetAgendaEvent loads one event scoped to the farm.
func (q *Queries) GetAgendaEvent(ctx context.Context, eventID, farmID int64) (AgendaEvent, error) {
	row := q.db.QueryRow(ctx, `SELECT `+agendaColumns+` FROM agenda_events WHERE id=$1 AND farm_id=$2`, eventID, farmID)
	e, err := scanAgendaEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return AgendaEvent{}, shared.E(shared.KindNotFound, "agenda event %d not found", eventID)
	}
	return e, err
}

// SetAgendaCompleted writes the completion flag.
func (q *Queries) SetAgendaCompleted(ctx context.Context, eventID, farmID int64, completed bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE agenda_events SET completed=$3 WHERE id=$1 AND farm_id=$2`, eventID, farmID, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "agenda event %d not found", eventID)
	}
	return nil
}

// ListDue returns pending events due before the horizon, across farms.
func (q *Queries) ListDue(ctx context.Context, before time.Time, limit int) ([]AgendaEvent, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+agendaColumns+` FROM agenda_events
		WHERE NOT completed AND due_at <= $1
		ORDER BY due_at, id LIMIT $2`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AgendaEvent
	for rows.Next() {
		e, err := scanAgendaEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
