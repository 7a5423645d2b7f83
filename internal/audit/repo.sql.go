package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit entries from Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListEntries returns the farm's audit trail, newest first.
func (r *PGRepository) ListEntries(ctx context.Context, farmID int64, f Filter) ([]Entry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, actor_id, farm_id, action, entity, entity_id, meta, occurred_at FROM audit_logs WHERE farm_id = $1`)
	args := []any{farmID}
	if f.Entity != "" {
		args = append(args, f.Entity)
		sb.WriteString(` AND entity = $` + strconv.Itoa(len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		sb.WriteString(` AND action = $` + strconv.Itoa(len(args)))
	}
	args = append(args, f.Limit)
	sb.WriteString(` ORDER BY occurred_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.FarmID, &e.Action, &e.Entity, &e.EntityID, &meta, &e.OccurredAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Meta)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
