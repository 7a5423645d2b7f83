package flock

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
)

type batchRef struct {
	batchID int64
	farmID  int64
}

type memoryRepo struct {
	batches      map[int64]Batch
	sheds        map[int64]shed.Shed
	costEntries  []costs.Entry
	agenda       []sanitary.AgendaEvent
	healthEvents []batchRef
	salesByBatch map[int64]int64
	nextBatch    int64
	nextEntry    int64
	nextAgenda   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		batches:      map[int64]Batch{},
		sheds:        map[int64]shed.Shed{},
		salesByBatch: map[int64]int64{},
		nextBatch:    1,
	}
}

func (m *memoryRepo) snapshot() *memoryRepo {
	cp := &memoryRepo{
		batches:      make(map[int64]Batch, len(m.batches)),
		sheds:        make(map[int64]shed.Shed, len(m.sheds)),
		costEntries:  append([]costs.Entry(nil), m.costEntries...),
		agenda:       append([]sanitary.AgendaEvent(nil), m.agenda...),
		healthEvents: append([]batchRef(nil), m.healthEvents...),
		salesByBatch: make(map[int64]int64, len(m.salesByBatch)),
		nextBatch:    m.nextBatch,
		nextEntry:    m.nextEntry,
		nextAgenda:   m.nextAgenda,
	}
	for k, v := range m.batches {
		cp.batches[k] = v
	}
	for k, v := range m.sheds {
		cp.sheds[k] = v
	}
	for k, v := range m.salesByBatch {
		cp.salesByBatch[k] = v
	}
	return cp
}

func (m *memoryRepo) restore(cp *memoryRepo) {
	m.batches = cp.batches
	m.sheds = cp.sheds
	m.costEntries = cp.costEntries
	m.agenda = cp.agenda
	m.healthEvents = cp.healthEvents
	m.salesByBatch = cp.salesByBatch
	m.nextBatch = cp.nextBatch
	m.nextEntry = cp.nextEntry
	m.nextAgenda = cp.nextAgenda
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	saved := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

func (m *memoryRepo) GetBatchForUpdate(_ context.Context, batchID, farmID int64) (Batch, error) {
	b, ok := m.batches[batchID]
	if !ok || b.FarmID != farmID {
		return Batch{}, shared.E(shared.KindNotFound, "batch %d not found", batchID)
	}
	return b, nil
}

func (m *memoryRepo) InsertBatch(_ context.Context, b Batch) (Batch, error) {
	b.ID = m.nextBatch
	m.nextBatch++
	m.batches[b.ID] = b
	return b, nil
}

func (m *memoryRepo) UpdateBatchCount(_ context.Context, batchID, farmID int64, count int) error {
	b, err := m.GetBatchForUpdate(context.Background(), batchID, farmID)
	if err != nil {
		return err
	}
	b.CurrentCount = count
	m.batches[batchID] = b
	return nil
}

func (m *memoryRepo) UpdateBatchState(_ context.Context, batchID, farmID int64, state State) error {
	b, err := m.GetBatchForUpdate(context.Background(), batchID, farmID)
	if err != nil {
		return err
	}
	b.State = state
	m.batches[batchID] = b
	return nil
}

func (m *memoryRepo) DeleteBatch(_ context.Context, batchID, farmID int64) error {
	if _, err := m.GetBatchForUpdate(context.Background(), batchID, farmID); err != nil {
		return err
	}
	delete(m.batches, batchID)
	return nil
}

func (m *memoryRepo) DeleteAgendaForBatch(_ context.Context, batchID, farmID int64) error {
	kept := m.agenda[:0]
	for _, e := range m.agenda {
		if !(e.BatchID == batchID && e.FarmID == farmID) {
			kept = append(kept, e)
		}
	}
	m.agenda = kept
	return nil
}

func (m *memoryRepo) DeleteCostEntriesForBatch(_ context.Context, batchID, farmID int64) error {
	kept := m.costEntries[:0]
	for _, e := range m.costEntries {
		if !(e.BatchID != nil && *e.BatchID == batchID && e.FarmID == farmID) {
			kept = append(kept, e)
		}
	}
	m.costEntries = kept
	return nil
}

func (m *memoryRepo) DeleteHealthEventsForBatch(_ context.Context, batchID, farmID int64) error {
	kept := m.healthEvents[:0]
	for _, e := range m.healthEvents {
		if !(e.batchID == batchID && e.farmID == farmID) {
			kept = append(kept, e)
		}
	}
	m.healthEvents = kept
	return nil
}

func (m *memoryRepo) CountSalesForBatch(_ context.Context, batchID, _ int64) (int64, error) {
	return m.salesByBatch[batchID], nil
}

func (m *memoryRepo) GetShedForUpdate(_ context.Context, shedID, farmID int64) (shed.Shed, error) {
	sh, ok := m.sheds[shedID]
	if !ok || sh.FarmID != farmID {
		return shed.Shed{}, shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return sh, nil
}

func (m *memoryRepo) UpdateShedState(_ context.Context, shedID, farmID int64, state shed.State, batchID *int64, availableAt *time.Time) error {
	sh, ok := m.sheds[shedID]
	if !ok || sh.FarmID != farmID {
		return shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	sh.State = state
	sh.BatchID = batchID
	sh.AvailableAt = availableAt
	m.sheds[shedID] = sh
	return nil
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
	m.nextEntry++
	e.ID = m.nextEntry
	m.costEntries = append(m.costEntries, e)
	return e.ID, nil
}

func (m *memoryRepo) InsertAgendaEvent(_ context.Context, e sanitary.AgendaEvent) (int64, error) {
	m.nextAgenda++
	e.ID = m.nextAgenda
	m.agenda = append(m.agenda, e)
	return e.ID, nil
}

func (m *memoryRepo) GetBatch(ctx context.Context, batchID, farmID int64) (Batch, error) {
	return m.GetBatchForUpdate(ctx, batchID, farmID)
}

func (m *memoryRepo) ListBatches(_ context.Context, farmID int64) ([]Batch, error) {
	var out []Batch
	for _, b := range m.batches {
		if b.FarmID == farmID {
			out = append(out, b)
		}
	}
	return out, nil
}

// planRepo is the minimal sanitary repository needed by Plan lookups.
type planRepo struct {
	plans map[int64]string
}

func (p *planRepo) WithTx(context.Context, func(context.Context, sanitary.Tx) error) error {
	return nil
}
func (p *planRepo) GetPlan(_ context.Context, farmID int64) (string, error) {
	return p.plans[farmID], nil
}
func (p *planRepo) UpsertPlan(_ context.Context, farmID int64, plan string) error {
	p.plans[farmID] = plan
	return nil
}
func (p *planRepo) ListAgenda(context.Context, int64, *int64, bool, int) ([]sanitary.AgendaEvent, error) {
	return nil, nil
}
func (p *planRepo) GetAgendaEvent(context.Context, int64, int64) (sanitary.AgendaEvent, error) {
	return sanitary.AgendaEvent{}, nil
}
func (p *planRepo) SetAgendaCompleted(context.Context, int64, int64, bool) error { return nil }
func (p *planRepo) ListDue(context.Context, time.Time, int) ([]sanitary.AgendaEvent, error) {
	return nil, nil
}

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestService(repo *memoryRepo, plans map[int64]string) *Service {
	if plans == nil {
		plans = map[int64]string{}
	}
	sanitarySvc := sanitary.NewService(&planRepo{plans: plans}, nil, slog.Default())
	svc := NewService(repo, shed.NewService(nil, 7), costs.NewService(nil), sanitarySvc, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedShed(repo *memoryRepo, id int64, state shed.State) {
	repo.sheds[id] = shed.Shed{ID: id, FarmID: 1, Name: "Shed A", Capacity: 1000, State: state}
}

func TestCreateBatchOrchestratesIntake(t *testing.T) {
	repo := newMemoryRepo()
	seedShed(repo, 5, shed.StateFree)
	svc := newTestService(repo, map[int64]string{1: "7,14,21"})

	b, err := svc.Create(context.Background(), CreateInput{
		FarmID: 1, Code: "LOT-2025-01", Breed: "Cobb 500", ShedID: 5, Count: 500, UnitPrice: 1.2,
	})
	require.NoError(t, err)
	require.Equal(t, StateAvailable, b.State)
	require.Equal(t, 500, b.CurrentCount)

	sh := repo.sheds[5]
	require.Equal(t, shed.StateOccupied, sh.State)
	require.NotNil(t, sh.BatchID)
	require.Equal(t, b.ID, *sh.BatchID)

	require.Len(t, repo.costEntries, 1)
	require.Equal(t, costs.CategoryChicks, repo.costEntries[0].Category)
	require.InDelta(t, 600.0, repo.costEntries[0].Amount, 1e-9)

	require.Len(t, repo.agenda, 3)
	require.Contains(t, repo.agenda[0].Description, "LOT-2025-01")
}

func TestCreateBatchOccupiedShedRollsEverythingBack(t *testing.T) {
	repo := newMemoryRepo()
	seedShed(repo, 5, shed.StateOccupied)
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		FarmID: 1, Code: "LOT-2025-02", ShedID: 5, Count: 100, UnitPrice: 1.0,
	})
	require.True(t, shared.IsKind(err, shared.KindShedUnavailable))
	require.Empty(t, repo.batches)
	require.Empty(t, repo.costEntries)
	require.Empty(t, repo.agenda)
}

func TestCreateBatchZeroPriceSkipsCostEntry(t *testing.T) {
	repo := newMemoryRepo()
	seedShed(repo, 5, shed.StateFree)
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		FarmID: 1, Code: "LOT-2025-03", ShedID: 5, Count: 50,
	})
	require.NoError(t, err)
	require.Empty(t, repo.costEntries)
	require.Len(t, repo.agenda, 3) // default plan
}

func TestDecrementInTx(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	b, _ := repo.InsertBatch(context.Background(), Batch{
		FarmID: 1, Code: "LOT-A", InitialCount: 100, CurrentCount: 100, State: StateAvailable,
	})

	newCount, depleted, err := svc.DecrementInTx(context.Background(), repo, b.ID, 1, 30, "mortality")
	require.NoError(t, err)
	require.Equal(t, 70, newCount)
	require.False(t, depleted)

	_, _, err = svc.DecrementInTx(context.Background(), repo, b.ID, 1, 80, "sale")
	require.True(t, shared.IsKind(err, shared.KindExceedsCount))
	require.Contains(t, err.Error(), "70")
	require.Equal(t, 70, repo.batches[b.ID].CurrentCount)

	newCount, depleted, err = svc.DecrementInTx(context.Background(), repo, b.ID, 1, 70, "sale")
	require.NoError(t, err)
	require.Zero(t, newCount)
	require.True(t, depleted)
}

func TestRestoreInTxCapsAtInitialAndReopens(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	b, _ := repo.InsertBatch(context.Background(), Batch{
		FarmID: 1, Code: "LOT-B", InitialCount: 100, CurrentCount: 0, State: StateSoldOut,
	})

	restored, err := svc.RestoreInTx(context.Background(), repo, b.ID, 1, 150)
	require.NoError(t, err)
	require.Equal(t, 100, restored.CurrentCount)
	require.Equal(t, StateAvailable, restored.State)
	require.Equal(t, StateAvailable, repo.batches[b.ID].State)
}

func TestDeleteBatchFreesShedImmediately(t *testing.T) {
	repo := newMemoryRepo()
	seedShed(repo, 5, shed.StateFree)
	svc := newTestService(repo, nil)

	b, err := svc.Create(context.Background(), CreateInput{
		FarmID: 1, Code: "LOT-C", ShedID: 5, Count: 10,
	})
	require.NoError(t, err)
	require.Len(t, repo.agenda, 3)

	require.NoError(t, svc.Delete(context.Background(), b.ID, 1, 9))
	require.Empty(t, repo.batches)
	require.Empty(t, repo.agenda)
	require.Equal(t, shed.StateFree, repo.sheds[5].State)
	require.Nil(t, repo.sheds[5].AvailableAt)
}

func TestDeleteBatchPurgesCostAndHealthRows(t *testing.T) {
	repo := newMemoryRepo()
	seedShed(repo, 5, shed.StateFree)
	svc := newTestService(repo, nil)

	b, err := svc.Create(context.Background(), CreateInput{
		FarmID: 1, Code: "LOT-D", ShedID: 5, Count: 200, UnitPrice: 1.5,
	})
	require.NoError(t, err)
	require.Len(t, repo.costEntries, 1)
	repo.healthEvents = append(repo.healthEvents, batchRef{batchID: b.ID, farmID: 1})

	require.NoError(t, svc.Delete(context.Background(), b.ID, 1, 9))
	require.Empty(t, repo.batches)
	require.Empty(t, repo.costEntries)
	require.Empty(t, repo.healthEvents)
	require.Empty(t, repo.agenda)
	require.Equal(t, shed.StateFree, repo.sheds[5].State)
}

func TestDeleteBatchWithSalesRefused(t *testing.T) {
	repo := newMemoryRepo()
	seedShed(repo, 5, shed.StateFree)
	svc := newTestService(repo, nil)

	b, err := svc.Create(context.Background(), CreateInput{
		FarmID: 1, Code: "LOT-E", ShedID: 5, Count: 200, UnitPrice: 1.5,
	})
	require.NoError(t, err)
	repo.salesByBatch[b.ID] = 2

	err = svc.Delete(context.Background(), b.ID, 1, 9)
	require.True(t, shared.IsKind(err, shared.KindValidation))
	require.Contains(t, err.Error(), "LOT-E")

	// Nothing moved: the batch, its cost entry, and its shed are untouched.
	require.Contains(t, repo.batches, b.ID)
	require.Len(t, repo.costEntries, 1)
	require.Equal(t, shed.StateOccupied, repo.sheds[5].State)
}
