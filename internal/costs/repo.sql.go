package costs

import (
	"context"
	"strconv"
	"strings"

	"github.com/farmcore/farmcore/internal/platform/db"
)

// Queries runs cost SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

// BatchExists reports whether a batch row exists within the farm.
func (q *Queries) BatchExists(ctx context.Context, batchID, farmID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM batches WHERE id=$1 AND farm_id=$2)`, batchID, farmID).Scan(&exists)
	return exists, err
}

// ShedExists reports whether a shed row exists within the farm.
func (q *Queries) ShedExists(ctx context.Context, shedID, farmID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sheds WHERE id=$1 AND farm_id=$2)`, shedID, farmID).Scan(&exists)
	return exists, err
}

// InsertEntry appends one cost line.
func (q *Queries) InsertEntry(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO cost_entries (farm_id, batch_id, shed_id, category, description, amount, incurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.FarmID, e.BatchID, e.ShedID, string(e.Category), e.Description, e.Amount, e.IncurredAt, e.CreatedAt,
	).Scan(&id)
	return id, err
}

// ListEntries returns entries matching the filter, newest first.
func (q *Queries) ListEntries(ctx context.Context, f Filter) ([]Entry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, farm_id, batch_id, shed_id, category, description, amount, incurred_at, created_at
		FROM cost_entries WHERE farm_id=$1`)
	args := []any{f.FarmID}
	if f.BatchID != nil {
		args = append(args, *f.BatchID)
		sb.WriteString(` AND batch_id=$` + strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		sb.WriteString(` AND category=$` + strconv.Itoa(len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		sb.WriteString(` AND incurred_at >= $` + strconv.Itoa(len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		sb.WriteString(` AND incurred_at <= $` + strconv.Itoa(len(args)))
	}
	args = append(args, f.Limit)
	sb.WriteString(` ORDER BY incurred_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)))

	rows, err := q.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var cat string
		if err := rows.Scan(&e.ID, &e.FarmID, &e.BatchID, &e.ShedID, &cat, &e.Description, &e.Amount, &e.IncurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Category = Category(cat)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SummarizeByCategory totals amounts per category.
func (q *Queries) SummarizeByCategory(ctx context.Context, farmID int64, batchID *int64) ([]CategoryTotal, error) {
	sql := `SELECT category, COALESCE(SUM(amount), 0) FROM cost_entries WHERE farm_id=$1`
	args := []any{farmID}
	if batchID != nil {
		sql += ` AND batch_id=$2`
		args = append(args, *batchID)
	}
	sql += ` GROUP BY category ORDER BY category`

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		var cat string
		if err := rows.Scan(&cat, &ct.Total); err != nil {
			return nil, err
		}
		ct.Category = Category(cat)
		out = append(out, ct)
	}
	return out, rows.Err()
}
