package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/farmcore/farmcore/internal/shared"
)

// Tx exposes the row operations a stock movement needs inside a transaction.
// Orchestrators that consume stock as part of a wider unit of work (health
// treatments) provide their own implementation bound to the same transaction.
type Tx interface {
	GetItemForUpdate(ctx context.Context, itemID, farmID int64) (Item, error)
	UpdateItemStock(ctx context.Context, itemID, farmID int64, qty, unitCost float64) error
	InsertMovement(ctx context.Context, m Movement) (int64, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	CreateItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, itemID, farmID int64) (Item, error)
	ListItems(ctx context.Context, farmID int64) ([]Item, error)
	DeleteItem(ctx context.Context, itemID, farmID int64) error
	HasMovements(ctx context.Context, itemID, farmID int64) (bool, error)
	ListMovements(ctx context.Context, itemID, farmID int64, limit int) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns inventory item quantity and weighted-average unit cost.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateItem registers a new inventory line.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (Item, error) {
	if input.FarmID == 0 {
		return Item{}, shared.E(shared.KindValidation, "farm id is required")
	}
	if input.Product == "" {
		return Item{}, shared.E(shared.KindValidation, "product name is required")
	}
	if input.Quantity < 0 || input.UnitCost < 0 {
		return Item{}, shared.E(shared.KindValidation, "quantity and unit cost must be >= 0")
	}
	item := Item{
		FarmID:     input.FarmID,
		Product:    input.Product,
		Category:   input.Category,
		Unit:       input.Unit,
		Quantity:   input.Quantity,
		UnitCost:   input.UnitCost,
		SupplierID: input.SupplierID,
		UpdatedAt:  s.now().UTC(),
	}
	return s.repo.CreateItem(ctx, item)
}

// GetItem loads a single item scoped to the farm.
func (s *Service) GetItem(ctx context.Context, itemID, farmID int64) (Item, error) {
	return s.repo.GetItem(ctx, itemID, farmID)
}

// ListItems lists the farm's inventory.
func (s *Service) ListItems(ctx context.Context, farmID int64) ([]Item, error) {
	return s.repo.ListItems(ctx, farmID)
}

// ListMovements returns recent ledger lines for an item.
func (s *Service) ListMovements(ctx context.Context, itemID, farmID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	return s.repo.ListMovements(ctx, itemID, farmID, limit)
}

// DeleteItem removes an item that has no recorded movements. Items with
// history are kept so the cost audit trail survives.
func (s *Service) DeleteItem(ctx context.Context, itemID, farmID int64) error {
	has, err := s.repo.HasMovements(ctx, itemID, farmID)
	if err != nil {
		return err
	}
	if has {
		return shared.E(shared.KindValidation, "item %d has recorded movements and cannot be deleted", itemID)
	}
	return s.repo.DeleteItem(ctx, itemID, farmID)
}

// Consume decrements an item's quantity inside its own transaction.
func (s *Service) Consume(ctx context.Context, input ConsumeInput) (Movement, error) {
	var mv Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		mv, err = s.ConsumeInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "stock:consume", input.ItemID, map[string]any{
		"qty":       input.Quantity,
		"reference": input.Reference,
	})
	return mv, nil
}

// ConsumeInTx applies an outbound movement using the caller's transaction.
// The returned movement carries the unit cost captured at consumption time so
// the caller can derive a cost entry; emitting that entry stays with the
// caller to keep the ledger composable.
func (s *Service) ConsumeInTx(ctx context.Context, tx Tx, input ConsumeInput) (Movement, error) {
	if input.Quantity <= 0 {
		return Movement{}, shared.E(shared.KindValidation, "consumption quantity must be > 0")
	}
	item, err := tx.GetItemForUpdate(ctx, input.ItemID, input.FarmID)
	if err != nil {
		return Movement{}, err
	}
	if input.Quantity > item.Quantity+QtyEpsilon {
		return Movement{}, shared.E(shared.KindInsufficientStock,
			"insufficient stock of %s: %.3f %s available, %.3f requested",
			item.Product, item.Quantity, item.Unit, input.Quantity)
	}
	newQty := item.Quantity - input.Quantity
	if newQty < 0 {
		newQty = 0
	}
	if err := tx.UpdateItemStock(ctx, item.ID, item.FarmID, newQty, item.UnitCost); err != nil {
		return Movement{}, err
	}
	mv := Movement{
		ItemID:      item.ID,
		FarmID:      item.FarmID,
		Type:        MovementConsume,
		Quantity:    input.Quantity,
		UnitCost:    item.UnitCost,
		BalanceQty:  newQty,
		BalanceCost: item.UnitCost,
		Reference:   input.Reference,
		PostedAt:    s.now().UTC(),
	}
	id, err := tx.InsertMovement(ctx, mv)
	if err != nil {
		return Movement{}, err
	}
	mv.ID = id
	return mv, nil
}

// Replenish adds purchased quantity inside its own transaction.
func (s *Service) Replenish(ctx context.Context, input ReplenishInput) (Movement, error) {
	var mv Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		mv, err = s.ReplenishInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "stock:replenish", input.ItemID, map[string]any{
		"qty":        input.Quantity,
		"total_cost": input.TotalCost,
	})
	return mv, nil
}

// ReplenishInTx applies an inbound movement, blending the unit cost as a
// weighted average of the old balance and the new purchase. This is the only
// pricing rule in the system.
func (s *Service) ReplenishInTx(ctx context.Context, tx Tx, input ReplenishInput) (Movement, error) {
	if input.Quantity <= 0 {
		return Movement{}, shared.E(shared.KindValidation, "replenishment quantity must be > 0")
	}
	if input.TotalCost < 0 {
		return Movement{}, shared.E(shared.KindValidation, "total purchase cost must be >= 0")
	}
	item, err := tx.GetItemForUpdate(ctx, input.ItemID, input.FarmID)
	if err != nil {
		return Movement{}, err
	}
	newQty := item.Quantity + input.Quantity
	var newUnit float64
	if newQty > 0 {
		newUnit = (item.Quantity*item.UnitCost + input.TotalCost) / newQty
	}
	if err := tx.UpdateItemStock(ctx, item.ID, item.FarmID, newQty, newUnit); err != nil {
		return Movement{}, err
	}
	purchaseUnit := input.TotalCost / input.Quantity
	mv := Movement{
		ItemID:      item.ID,
		FarmID:      item.FarmID,
		Type:        MovementReplenish,
		Quantity:    input.Quantity,
		UnitCost:    purchaseUnit,
		BalanceQty:  newQty,
		BalanceCost: newUnit,
		Reference:   input.Reference,
		PostedAt:    s.now().UTC(),
	}
	id, err := tx.InsertMovement(ctx, mv)
	if err != nil {
		return Movement{}, err
	}
	mv.ID = id
	return mv, nil
}

// SetUnitCost is the explicitly named override for callers that really do
// know the unit cost. It never guesses between total and unit pricing.
func (s *Service) SetUnitCost(ctx context.Context, input SetUnitCostInput) (Item, error) {
	if input.UnitCost < 0 {
		return Item{}, shared.E(shared.KindValidation, "unit cost must be >= 0")
	}
	var updated Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID, input.FarmID)
		if err != nil {
			return err
		}
		if err := tx.UpdateItemStock(ctx, item.ID, item.FarmID, item.Quantity, input.UnitCost); err != nil {
			return err
		}
		mv := Movement{
			ItemID:      item.ID,
			FarmID:      item.FarmID,
			Type:        MovementReprice,
			Quantity:    0,
			UnitCost:    input.UnitCost,
			BalanceQty:  item.Quantity,
			BalanceCost: input.UnitCost,
			Reference:   fmt.Sprintf("override from %.4f", item.UnitCost),
			PostedAt:    s.now().UTC(),
		}
		if _, err := tx.InsertMovement(ctx, mv); err != nil {
			return err
		}
		updated = item
		updated.UnitCost = input.UnitCost
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "stock:reprice", input.ItemID, map[string]any{
		"unit_cost": input.UnitCost,
	})
	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, farmID int64, action string, itemID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		FarmID:   farmID,
		Action:   action,
		Entity:   "stock_item",
		EntityID: fmt.Sprintf("%d", itemID),
		Meta:     meta,
	})
}
