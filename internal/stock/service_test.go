package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmcore/farmcore/internal/shared"
)

type memoryRepo struct {
	items     map[int64]Item
	movements []Movement
	nextItem  int64
	nextMove  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]Item{}, nextItem: 1, nextMove: 1}
}

func (m *memoryRepo) snapshot() (map[int64]Item, []Movement) {
	items := make(map[int64]Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	moves := append([]Movement(nil), m.movements...)
	return items, moves
}

// WithTx gives the callback direct access and rolls the maps back on error,
// mirroring the all-or-nothing behavior of the real transaction.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	items, moves := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.items = items
		m.movements = moves
		return err
	}
	return nil
}

func (m *memoryRepo) GetItemForUpdate(_ context.Context, itemID, farmID int64) (Item, error) {
	it, ok := m.items[itemID]
	if !ok || it.FarmID != farmID {
		return Item{}, shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	return it, nil
}

func (m *memoryRepo) UpdateItemStock(_ context.Context, itemID, farmID int64, qty, unitCost float64) error {
	it, ok := m.items[itemID]
	if !ok || it.FarmID != farmID {
		return shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	it.Quantity = qty
	it.UnitCost = unitCost
	m.items[itemID] = it
	return nil
}

func (m *memoryRepo) InsertMovement(_ context.Context, mv Movement) (int64, error) {
	mv.ID = m.nextMove
	m.nextMove++
	m.movements = append(m.movements, mv)
	return mv.ID, nil
}

func (m *memoryRepo) CreateItem(_ context.Context, item Item) (Item, error) {
	item.ID = m.nextItem
	m.nextItem++
	m.items[item.ID] = item
	return item, nil
}

func (m *memoryRepo) GetItem(ctx context.Context, itemID, farmID int64) (Item, error) {
	return m.GetItemForUpdate(ctx, itemID, farmID)
}

func (m *memoryRepo) ListItems(_ context.Context, farmID int64) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.FarmID == farmID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memoryRepo) DeleteItem(_ context.Context, itemID, farmID int64) error {
	it, ok := m.items[itemID]
	if !ok || it.FarmID != farmID {
		return shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	delete(m.items, itemID)
	return nil
}

func (m *memoryRepo) HasMovements(_ context.Context, itemID, farmID int64) (bool, error) {
	for _, mv := range m.movements {
		if mv.ItemID == itemID && mv.FarmID == farmID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) ListMovements(_ context.Context, itemID, farmID int64, limit int) ([]Movement, error) {
	var out []Movement
	for i := len(m.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if m.movements[i].ItemID == itemID && m.movements[i].FarmID == farmID {
			out = append(out, m.movements[i])
		}
	}
	return out, nil
}

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func seedItem(repo *memoryRepo, qty, unitCost float64) Item {
	item, _ := repo.CreateItem(context.Background(), Item{
		FarmID:   1,
		Product:  "Starter Feed",
		Category: "feed",
		Unit:     "kg",
		Quantity: qty,
		UnitCost: unitCost,
	})
	return item
}

func TestConsumeDecrementsAndRecordsMovement(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 100, 2.0)

	mv, err := svc.Consume(context.Background(), ConsumeInput{
		ItemID: item.ID, FarmID: 1, Quantity: 30, Reference: "daily feeding", ActorID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, MovementConsume, mv.Type)
	require.InDelta(t, 30.0, mv.Quantity, 1e-9)
	require.InDelta(t, 70.0, mv.BalanceQty, 1e-9)
	require.InDelta(t, 2.0, mv.UnitCost, 1e-9)

	got, err := svc.GetItem(context.Background(), item.ID, 1)
	require.NoError(t, err)
	require.InDelta(t, 70.0, got.Quantity, 1e-9)
	require.InDelta(t, 2.0, got.UnitCost, 1e-9)
}

func TestConsumeInsufficientStockLeavesStateUntouched(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 70, 2.0)

	_, err := svc.Consume(context.Background(), ConsumeInput{ItemID: item.ID, FarmID: 1, Quantity: 80})
	require.Error(t, err)
	require.True(t, shared.IsKind(err, shared.KindInsufficientStock))
	require.Contains(t, err.Error(), "70.000 kg available")
	require.Contains(t, err.Error(), "80.000 requested")

	got, err := svc.GetItem(context.Background(), item.ID, 1)
	require.NoError(t, err)
	require.InDelta(t, 70.0, got.Quantity, 1e-9)
	require.Empty(t, repo.movements)
}

func TestConsumeWithinEpsilonClampsToZero(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 10.0, 1.5)

	mv, err := svc.Consume(context.Background(), ConsumeInput{ItemID: item.ID, FarmID: 1, Quantity: 10.0005})
	require.NoError(t, err)
	require.InDelta(t, 0.0, mv.BalanceQty, 1e-9)

	got, err := svc.GetItem(context.Background(), item.ID, 1)
	require.NoError(t, err)
	require.Zero(t, got.Quantity)
}

func TestConsumeRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 10, 1)

	_, err := svc.Consume(context.Background(), ConsumeInput{ItemID: item.ID, FarmID: 1, Quantity: 0})
	require.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = svc.Consume(context.Background(), ConsumeInput{ItemID: item.ID, FarmID: 1, Quantity: -4})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestConsumeWrongFarmReadsAsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 10, 1)

	_, err := svc.Consume(context.Background(), ConsumeInput{ItemID: item.ID, FarmID: 2, Quantity: 1})
	require.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestReplenishBlendsWeightedAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 70, 2.0)

	mv, err := svc.Replenish(context.Background(), ReplenishInput{
		ItemID: item.ID, FarmID: 1, Quantity: 30, TotalCost: 75, Reference: "PO-118",
	})
	require.NoError(t, err)
	require.Equal(t, MovementReplenish, mv.Type)
	require.InDelta(t, 2.5, mv.UnitCost, 1e-9)
	require.InDelta(t, 100.0, mv.BalanceQty, 1e-9)
	require.InDelta(t, 2.15, mv.BalanceCost, 1e-9)

	got, err := svc.GetItem(context.Background(), item.ID, 1)
	require.NoError(t, err)
	require.InDelta(t, 100.0, got.Quantity, 1e-9)
	require.InDelta(t, 2.15, got.UnitCost, 1e-9)
}

func TestReplenishFromZeroUsesPurchaseCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 0, 0)

	_, err := svc.Replenish(context.Background(), ReplenishInput{ItemID: item.ID, FarmID: 1, Quantity: 40, TotalCost: 100})
	require.NoError(t, err)

	got, err := svc.GetItem(context.Background(), item.ID, 1)
	require.NoError(t, err)
	require.InDelta(t, 40.0, got.Quantity, 1e-9)
	require.InDelta(t, 2.5, got.UnitCost, 1e-9)
}

func TestSetUnitCostKeepsQuantityAndWritesRepriceLine(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 55, 1.8)

	updated, err := svc.SetUnitCost(context.Background(), SetUnitCostInput{ItemID: item.ID, FarmID: 1, UnitCost: 2.25})
	require.NoError(t, err)
	require.InDelta(t, 55.0, updated.Quantity, 1e-9)
	require.InDelta(t, 2.25, updated.UnitCost, 1e-9)

	moves, err := svc.ListMovements(context.Background(), item.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, MovementReprice, moves[0].Type)
	require.Zero(t, moves[0].Quantity)
	require.Contains(t, moves[0].Reference, "1.8000")
}

func TestDeleteItemRefusedWhileMovementsExist(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	item := seedItem(repo, 20, 1)

	_, err := svc.Consume(context.Background(), ConsumeInput{ItemID: item.ID, FarmID: 1, Quantity: 5})
	require.NoError(t, err)

	err = svc.DeleteItem(context.Background(), item.ID, 1)
	require.True(t, shared.IsKind(err, shared.KindValidation))

	fresh := seedItem(repo, 3, 1)
	require.NoError(t, svc.DeleteItem(context.Background(), fresh.ID, 1))
}
