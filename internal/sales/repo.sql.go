package sales

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shared"
)

// Queries runs sale SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

const saleColumns = `id, farm_id, batch_id, quantity, weight, unit_price, total, buyer, reference, sold_at, created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.FarmID, &s.BatchID, &s.Quantity, &s.Weight, &s.UnitPrice, &s.Total, &s.Buyer, &s.Reference, &s.SoldAt, &s.CreatedAt)
	return s, err
}

// InsertSale creates a sale row.
func (q *Queries) InsertSale(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO sales (farm_id, batch_id, quantity, weight, unit_price, total, buyer, reference, sold_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		s.FarmID, s.BatchID, s.Quantity, s.Weight, s.UnitPrice, s.Total, s.Buyer, s.Reference, s.SoldAt, s.CreatedAt,
	).Scan(&id)
	return id, err
}

// GetSale loads a sale scoped to the farm.
func (q *Queries) GetSale(ctx context.Context, saleID, farmID int64) (Sale, error) {
	row := q.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1 AND farm_id=$2`, saleID, farmID)
	s, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.E(shared.KindNotFound, "sale %d not found", saleID)
	}
	return s, err
}

// GetSaleForUpdate locks the sale row for the reversal.
func (q *Queries) GetSaleForUpdate(ctx context.Context, saleID, farmID int64) (Sale, error) {
	row := q.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1 AND farm_id=$2 FOR UPDATE`, saleID, farmID)
	s, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.E(shared.KindNotFound, "sale %d not found", saleID)
	}
	return s, err
}

// DeleteSale removes a sale row.
func (q *Queries) DeleteSale(ctx context.Context, saleID, farmID int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM sales WHERE id=$1 AND farm_id=$2`, saleID, farmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "sale %d not found", saleID)
	}
	return nil
}

// ListSales returns sales for the farm, newest first.
func (q *Queries) ListSales(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Sale, error) {
	sql := `SELECT ` + saleColumns + ` FROM sales WHERE farm_id=$1`
	args := []any{farmID}
	if batchID != nil {
		args = append(args, *batchID)
		sql += ` AND batch_id=$2`
	}
	args = append(args, limit)
	if batchID != nil {
		sql += ` ORDER BY sold_at DESC, id DESC LIMIT $3`
	} else {
		sql += ` ORDER BY sold_at DESC, id DESC LIMIT $2`
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
