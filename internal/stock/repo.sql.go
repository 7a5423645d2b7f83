package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/shared"
)

// Queries runs stock SQL against a pool or transaction.
type Queries struct {
	db db.DBTX
}

// NewQueries binds the query set to a connection or transaction.
func NewQueries(dbtx db.DBTX) *Queries {
	return &Queries{db: dbtx}
}

const itemColumns = `id, farm_id, product, category, unit, quantity, unit_cost, supplier_id, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.FarmID, &it.Product, &it.Category, &it.Unit, &it.Quantity, &it.UnitCost, &it.SupplierID, &it.UpdatedAt)
	return it, err
}

// GetItem loads an item scoped to the farm.
func (q *Queries) GetItem(ctx context.Context, itemID, farmID int64) (Item, error) {
	row := q.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1 AND farm_id=$2`, itemID, farmID)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	return it, err
}

// GetItemForUpdate locks the item row for the duration of the transaction so
// concurrent consumption requests serialize instead of racing the stock check.
func (q *Queries) GetItemForUpdate(ctx context.Context, itemID, farmID int64) (Item, error) {
	row := q.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1 AND farm_id=$2 FOR UPDATE`, itemID, farmID)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	return it, err
}

// UpdateItemStock writes the new balance.
func (q *Queries) UpdateItemStock(ctx context.Context, itemID, farmID int64, qty, unitCost float64) error {
	tag, err := q.db.Exec(ctx, `UPDATE stock_items SET quantity=$3, unit_cost=$4, updated_at=NOW() WHERE id=$1 AND farm_id=$2`, itemID, farmID, qty, unitCost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	return nil
}

// InsertMovement appends one ledger line.
func (q *Queries) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO stock_movements (item_id, farm_id, movement_type, quantity, unit_cost, balance_qty, balance_cost, reference, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		m.ItemID, m.FarmID, string(m.Type), m.Quantity, m.UnitCost, m.BalanceQty, m.BalanceCost, m.Reference, m.PostedAt,
	).Scan(&id)
	return id, err
}

// InsertItem creates an item and returns it with its id.
func (q *Queries) InsertItem(ctx context.Context, item Item) (Item, error) {
	err := q.db.QueryRow(ctx, `
		INSERT INTO stock_items (farm_id, product, category, unit, quantity, unit_cost, supplier_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		item.FarmID, item.Product, item.Category, item.Unit, item.Quantity, item.UnitCost, item.SupplierID, item.UpdatedAt,
	).Scan(&item.ID)
	return item, err
}

// ListItems returns the farm's inventory ordered by product.
func (q *Queries) ListItems(ctx context.Context, farmID int64) ([]Item, error) {
	rows, err := q.db.Query(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE farm_id=$1 ORDER BY product`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteItem removes an item row.
func (q *Queries) DeleteItem(ctx context.Context, itemID, farmID int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM stock_items WHERE id=$1 AND farm_id=$2`, itemID, farmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	return nil
}

// HasMovements reports whether any ledger line references the item.
func (q *Queries) HasMovements(ctx context.Context, itemID, farmID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stock_movements WHERE item_id=$1 AND farm_id=$2)`, itemID, farmID).Scan(&exists)
	return exists, err
}

// ListMovements returns recent ledger lines, newest first.
func (q *Queries) ListMovements(ctx context.Context, itemID, farmID int64, limit int) ([]Movement, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, item_id, farm_id, movement_type, quantity, unit_cost, balance_qty, balance_cost, reference, posted_at
		FROM stock_movements WHERE item_id=$1 AND farm_id=$2
		ORDER BY posted_at DESC, id DESC LIMIT $3`, itemID, farmID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		var typ string
		if err := rows.Scan(&m.ID, &m.ItemID, &m.FarmID, &typ, &m.Quantity, &m.UnitCost, &m.BalanceQty, &m.BalanceCost, &m.Reference, &m.PostedAt); err != nil {
			return nil, err
		}
		m.Type = MovementType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}
