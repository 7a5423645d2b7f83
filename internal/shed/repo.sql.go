package shed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shared"
)

// Queries runs shed SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

const shedColumns = `id, farm_id, name, capacity, state, batch_id, available_at, updated_at`

func scanShed(row pgx.Row) (Shed, error) {
	var sh Shed
	var state string
	err := row.Scan(&sh.ID, &sh.FarmID, &sh.Name, &sh.Capacity, &state, &sh.BatchID, &sh.AvailableAt, &sh.UpdatedAt)
	sh.State = State(state)
	return sh, err
}

// GetShed loads a shed scoped to the farm.
func (q *Queries) GetShed(ctx context.Context, shedID, farmID int64) (Shed, error) {
	row := q.db.QueryRow(ctx, `SELECT `+shedColumns+` FROM sheds WHERE id=$1 AND farm_id=$2`, shedID, farmID)
	sh, err := scanShed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Shed{}, shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return sh, err
}

// GetShedForUpdate locks the shed row so concurrent transitions serialize.
func (q *Queries) GetShedForUpdate(ctx context.Context, shedID, farmID int64) (Shed, error) {
	row := q.db.QueryRow(ctx, `SELECT `+shedColumns+` FROM sheds WHERE id=$1 AND farm_id=$2 FOR UPDATE`, shedID, farmID)
	sh, err := scanShed(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Shed{}, shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return sh, err
}

// UpdateShedState writes the new state triple.
func (q *Queries) UpdateShedState(ctx context.Context, shedID, farmID int64, state State, batchID *int64, availableAt *time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE sheds SET state=$3, batch_id=$4, available_at=$5, updated_at=NOW()
		WHERE id=$1 AND farm_id=$2`,
		shedID, farmID, string(state), batchID, availableAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return nil
}

// InsertShed creates a shed row and returns it with its id.
func (q *Queries) InsertShed(ctx context.Context, sh Shed) (Shed, error) {
	err := q.db.QueryRow(ctx, `
		INSERT INTO sheds (farm_id, name, capacity, state, batch_id, available_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		sh.FarmID, sh.Name, sh.Capacity, string(sh.State), sh.BatchID, sh.AvailableAt, sh.UpdatedAt,
	).Scan(&sh.ID)
	return sh, err
}

// ListSheds returns the farm's sheds ordered by name.
func (q *Queries) ListSheds(ctx context.Context, farmID int64) ([]Shed, error) {
	rows, err := q.db.Query(ctx, `SELECT `+shedColumns+` FROM sheds WHERE farm_id=$1 ORDER BY name`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Shed
	for rows.Next() {
		sh, err := scanShed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// DeleteShed removes a shed row.
func (q *Queries) DeleteShed(ctx context.Context, shedID, farmID int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM sheds WHERE id=$1 AND farm_id=$2`, shedID, farmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return nil
}

// HasBatches reports whether any batch row, live or historical, still
// references the shed.
func (q *Queries) HasBatches(ctx context.Context, shedID, farmID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM batches WHERE shed_id=$1 AND farm_id=$2)`,
		shedID, farmID).Scan(&exists)
	return exists, err
}

// ReleaseDue frees all maintenance sheds whose cooldown has elapsed.
func (q *Queries) ReleaseDue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE sheds SET state=$1, batch_id=NULL, available_at=NULL, updated_at=NOW()
		WHERE state=$2 AND available_at IS NOT NULL AND available_at <= $3`,
		string(StateFree), string(StateMaintenance), now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
