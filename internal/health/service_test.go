package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
	"github.com/farmcore/farmcore/internal/stock"
)

type memoryRepo struct {
	batches     map[int64]flock.Batch
	sheds       map[int64]shed.Shed
	items       map[int64]stock.Item
	movements   []stock.Movement
	costEntries []costs.Entry
	events      []Event
	nextEvent   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		batches: map[int64]flock.Batch{},
		sheds:   map[int64]shed.Shed{},
		items:   map[int64]stock.Item{},
	}
}

func (m *memoryRepo) snapshot() *memoryRepo {
	cp := newMemoryRepo()
	for k, v := range m.batches {
		cp.batches[k] = v
	}
	for k, v := range m.sheds {
		cp.sheds[k] = v
	}
	for k, v := range m.items {
		cp.items[k] = v
	}
	cp.movements = append([]stock.Movement(nil), m.movements...)
	cp.costEntries = append([]costs.Entry(nil), m.costEntries...)
	cp.events = append([]Event(nil), m.events...)
	cp.nextEvent = m.nextEvent
	return cp
}

func (m *memoryRepo) restore(cp *memoryRepo) { *m = *cp }

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	saved := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

func (m *memoryRepo) InsertHealthEvent(_ context.Context, e Event) (int64, error) {
	m.nextEvent++
	e.ID = m.nextEvent
	m.events = append(m.events, e)
	return e.ID, nil
}

func (m *memoryRepo) GetBatchForUpdate(_ context.Context, batchID, farmID int64) (flock.Batch, error) {
	b, ok := m.batches[batchID]
	if !ok || b.FarmID != farmID {
		return flock.Batch{}, shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return b, nil
}

func (m *memoryRepo) InsertBatch(_ context.Context, b flock.Batch) (flock.Batch, error) {
	m.batches[b.ID] = b
	return b, nil
}

func (m *memoryRepo) UpdateBatchCount(_ context.Context, batchID, farmID int64, count int) error {
	b := m.batches[batchID]
	b.CurrentCount = count
	m.batches[batchID] = b
	return nil
}

func (m *memoryRepo) UpdateBatchState(_ context.Context, batchID, farmID int64, state flock.State) error {
	b := m.batches[batchID]
	b.State = state
	m.batches[batchID] = b
	return nil
}

func (m *memoryRepo) DeleteBatch(_ context.Context, batchID, farmID int64) error {
	delete(m.batches, batchID)
	return nil
}

func (m *memoryRepo) DeleteAgendaForBatch(context.Context, int64, int64) error { return nil }

func (m *memoryRepo) GetShedForUpdate(_ context.Context, shedID, farmID int64) (shed.Shed, error) {
	sh, ok := m.sheds[shedID]
	if !ok || sh.FarmID != farmID {
		return shed.Shed{}, shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return sh, nil
}

func (m *memoryRepo) UpdateShedState(_ context.Context, shedID, farmID int64, state shed.State, batchID *int64, availableAt *time.Time) error {
	sh := m.sheds[shedID]
	sh.State = state
	sh.BatchID = batchID
	sh.AvailableAt = availableAt
	m.sheds[shedID] = sh
	return nil
}

func (m *memoryRepo) GetItemForUpdate(_ context.Context, itemID, farmID int64) (stock.Item, error) {
	it, ok := m.items[itemID]
	if !ok || it.FarmID != farmID {
		return stock.Item{}, shared.E(shared.KindNotFound, "inventory item %d not found", itemID)
	}
	return it, nil
}

func (m *memoryRepo) UpdateItemStock(_ context.Context, itemID, farmID int64, qty, unitCost float64) error {
	it := m.items[itemID]
	it.Quantity = qty
	it.UnitCost = unitCost
	m.items[itemID] = it
	return nil
}

func (m *memoryRepo) InsertMovement(_ context.Context, mv stock.Movement) (int64, error) {
	m.movements = append(m.movements, mv)
	return int64(len(m.movements)), nil
}

func (m *memoryRepo) BatchExists(_ context.Context, batchID, farmID int64) (bool, error) {
	b, ok := m.batches[batchID]
	return ok && b.FarmID == farmID, nil
}

func (m *memoryRepo) ShedExists(_ context.Context, shedID, farmID int64) (bool, error) {
	sh, ok := m.sheds[shedID]
	return ok && sh.FarmID == farmID, nil
}

func (m *memoryRepo) InsertEntry(_ context.Context, e costs.Entry) (int64, error) {
	m.costEntries = append(m.costEntries, e)
	return int64(len(m.costEntries)), nil
}

func (m *memoryRepo) ListEvents(_ context.Context, farmID int64, batchID *int64, limit int) ([]Event, error) {
	var out []Event
	for _, e := range m.events {
		if e.FarmID != farmID || len(out) >= limit {
			continue
		}
		if batchID != nil && e.BatchID != *batchID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memoryRepo) *Service {
	shedSvc := shed.NewService(nil, 7)
	svc := NewService(repo, flock.NewService(nil, shedSvc, nil, nil, nil), shedSvc, stock.NewService(nil, nil), costs.NewService(nil), nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedBatch(repo *memoryRepo, count int) flock.Batch {
	b := flock.Batch{ID: 1, FarmID: 1, Code: "LOT-1", ShedID: 5, InitialCount: 100, CurrentCount: count, State: flock.StateAvailable}
	repo.batches[b.ID] = b
	repo.sheds[5] = shed.Shed{ID: 5, FarmID: 1, Name: "Shed A", Capacity: 500, State: shed.StateOccupied, BatchID: &b.ID}
	return b
}

func TestMortalityDecrementsAndRecordsEvent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	b := seedBatch(repo, 100)

	res, err := svc.RecordMortality(context.Background(), MortalityInput{FarmID: 1, BatchID: b.ID, Count: 4, Notes: "heat stress"})
	require.NoError(t, err)
	require.Equal(t, 96, res.NewCount)
	require.False(t, res.Depleted)
	require.Equal(t, EventMortality, res.Event.Type)
	require.Len(t, repo.events, 1)
	require.Equal(t, shed.StateOccupied, repo.sheds[5].State)
	require.Equal(t, flock.StateAvailable, repo.batches[b.ID].State)
}

func TestMortalityDepletionClosesBatchAndStartsCooldown(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	b := seedBatch(repo, 4)

	res, err := svc.RecordMortality(context.Background(), MortalityInput{FarmID: 1, BatchID: b.ID, Count: 4})
	require.NoError(t, err)
	require.True(t, res.Depleted)
	require.Equal(t, flock.StateClosed, repo.batches[b.ID].State)

	sh := repo.sheds[5]
	require.Equal(t, shed.StateMaintenance, sh.State)
	require.NotNil(t, sh.AvailableAt)
	require.Equal(t, testNow.AddDate(0, 0, 7), *sh.AvailableAt)
}

func TestMortalityExceedingCountRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	b := seedBatch(repo, 10)

	_, err := svc.RecordMortality(context.Background(), MortalityInput{FarmID: 1, BatchID: b.ID, Count: 11})
	require.True(t, shared.IsKind(err, shared.KindExceedsCount))
	require.Equal(t, 10, repo.batches[b.ID].CurrentCount)
	require.Empty(t, repo.events)
}

func TestTreatmentConsumesStockAndDerivesCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	b := seedBatch(repo, 100)
	repo.items[3] = stock.Item{ID: 3, FarmID: 1, Product: "Newcastle vaccine", Unit: "dose", Quantity: 200, UnitCost: 0.5}

	itemID := int64(3)
	e, err := svc.RecordTreatment(context.Background(), TreatmentInput{
		FarmID: 1, BatchID: b.ID, Type: EventVaccination, ItemID: &itemID, Quantity: 100, WithdrawalDays: 5,
	})
	require.NoError(t, err)
	require.InDelta(t, 100.0, e.QuantityUsed, 1e-9)
	require.NotNil(t, e.WithdrawalEnd)
	require.Equal(t, testNow.AddDate(0, 0, 5), *e.WithdrawalEnd)

	require.InDelta(t, 100.0, repo.items[3].Quantity, 1e-9)
	require.Len(t, repo.costEntries, 1)
	require.Equal(t, costs.CategoryMedicine, repo.costEntries[0].Category)
	require.InDelta(t, 50.0, repo.costEntries[0].Amount, 1e-9)
	require.Len(t, repo.movements, 1)
}

func TestTreatmentInsufficientStockRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	b := seedBatch(repo, 100)
	repo.items[3] = stock.Item{ID: 3, FarmID: 1, Product: "Antibiotic", Unit: "ml", Quantity: 10, UnitCost: 2}

	itemID := int64(3)
	_, err := svc.RecordTreatment(context.Background(), TreatmentInput{
		FarmID: 1, BatchID: b.ID, Type: EventTreatment, ItemID: &itemID, Quantity: 50,
	})
	require.True(t, shared.IsKind(err, shared.KindInsufficientStock))
	require.InDelta(t, 10.0, repo.items[3].Quantity, 1e-9)
	require.Empty(t, repo.events)
	require.Empty(t, repo.costEntries)
	require.Empty(t, repo.movements)
}

func TestTreatmentWithoutItemTouchesNothingElse(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	b := seedBatch(repo, 100)

	e, err := svc.RecordTreatment(context.Background(), TreatmentInput{
		FarmID: 1, BatchID: b.ID, Type: EventTreatment, Notes: "vitamin water",
	})
	require.NoError(t, err)
	require.Nil(t, e.WithdrawalEnd)
	require.Empty(t, repo.costEntries)
	require.Empty(t, repo.movements)
}

func TestTreatmentRejectsUnknownType(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	_, err := svc.RecordTreatment(context.Background(), TreatmentInput{FarmID: 1, BatchID: 1, Type: "checkup"})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}
