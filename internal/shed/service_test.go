package shed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmcore/farmcore/internal/shared"
)

type memoryRepo struct {
	sheds     map[int64]Shed
	batchRefs map[int64]int
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sheds: map[int64]Shed{}, batchRefs: map[int64]int{}, nextID: 1}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	saved := make(map[int64]Shed, len(m.sheds))
	for k, v := range m.sheds {
		saved[k] = v
	}
	if err := fn(ctx, m); err != nil {
		m.sheds = saved
		return err
	}
	return nil
}

func (m *memoryRepo) GetShedForUpdate(_ context.Context, shedID, farmID int64) (Shed, error) {
	sh, ok := m.sheds[shedID]
	if !ok || sh.FarmID != farmID {
		return Shed{}, shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	return sh, nil
}

func (m *memoryRepo) UpdateShedState(_ context.Context, shedID, farmID int64, state State, batchID *int64, availableAt *time.Time) error {
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

func (m *memoryRepo) CreateShed(_ context.Context, sh Shed) (Shed, error) {
	sh.ID = m.nextID
	m.nextID++
	m.sheds[sh.ID] = sh
	return sh, nil
}

func (m *memoryRepo) GetShed(ctx context.Context, shedID, farmID int64) (Shed, error) {
	return m.GetShedForUpdate(ctx, shedID, farmID)
}

func (m *memoryRepo) ListSheds(_ context.Context, farmID int64) ([]Shed, error) {
	var out []Shed
	for _, sh := range m.sheds {
		if sh.FarmID == farmID {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (m *memoryRepo) DeleteShed(_ context.Context, shedID, farmID int64) error {
	sh, ok := m.sheds[shedID]
	if !ok || sh.FarmID != farmID {
		return shared.E(shared.KindShedNotFound, "shed %d not found", shedID)
	}
	delete(m.sheds, shedID)
	return nil
}

func (m *memoryRepo) HasBatches(_ context.Context, shedID, farmID int64) (bool, error) {
	sh, ok := m.sheds[shedID]
	if !ok || sh.FarmID != farmID {
		return false, nil
	}
	return m.batchRefs[shedID] > 0, nil
}

func (m *memoryRepo) ReleaseDue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, sh := range m.sheds {
		if sh.State == StateMaintenance && sh.AvailableAt != nil && !sh.AvailableAt.After(now) {
			sh.State = StateFree
			sh.BatchID = nil
			sh.AvailableAt = nil
			m.sheds[id] = sh
			n++
		}
	}
	return n, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, 7)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedShed(repo *memoryRepo, state State) Shed {
	sh, _ := repo.CreateShed(context.Background(), Shed{FarmID: 1, Name: "Shed A", Capacity: 500, State: state})
	return sh
}

func TestOccupyFreeShed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateFree)

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return svc.OccupyInTx(ctx, tx, sh.ID, 1, 42)
	})
	require.NoError(t, err)

	got := repo.sheds[sh.ID]
	require.Equal(t, StateOccupied, got.State)
	require.NotNil(t, got.BatchID)
	require.EqualValues(t, 42, *got.BatchID)
}

func TestOccupyRejectsNonFreeShed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateOccupied)

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return svc.OccupyInTx(ctx, tx, sh.ID, 1, 42)
	})
	require.True(t, shared.IsKind(err, shared.KindShedUnavailable))
}

func TestOccupyAcceptsExpiredMaintenanceShed(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateMaintenance)
	past := testNow.AddDate(0, 0, -1)
	entry := repo.sheds[sh.ID]
	entry.AvailableAt = &past
	repo.sheds[sh.ID] = entry

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return svc.OccupyInTx(ctx, tx, sh.ID, 1, 42)
	})
	require.NoError(t, err)
	require.Equal(t, StateOccupied, repo.sheds[sh.ID].State)
}

func TestScheduleMaintenanceSetsCooldown(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateOccupied)

	err := repo.WithTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return svc.ScheduleMaintenanceInTx(ctx, tx, sh.ID, 1)
	})
	require.NoError(t, err)

	got := repo.sheds[sh.ID]
	require.Equal(t, StateMaintenance, got.State)
	require.Nil(t, got.BatchID)
	require.NotNil(t, got.AvailableAt)
	require.Equal(t, testNow.AddDate(0, 0, 7), *got.AvailableAt)
}

func TestGetLazilyReleasesExpiredMaintenance(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateMaintenance)
	past := testNow.Add(-time.Hour)
	entry := repo.sheds[sh.ID]
	entry.AvailableAt = &past
	repo.sheds[sh.ID] = entry

	got, err := svc.Get(context.Background(), sh.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StateFree, got.State)
	require.Nil(t, got.AvailableAt)
	require.Equal(t, StateFree, repo.sheds[sh.ID].State)
}

func TestGetKeepsActiveMaintenance(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateMaintenance)
	future := testNow.AddDate(0, 0, 3)
	entry := repo.sheds[sh.ID]
	entry.AvailableAt = &future
	repo.sheds[sh.ID] = entry

	got, err := svc.Get(context.Background(), sh.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StateMaintenance, got.State)
}

func TestReleaseDueSweepsOnlyExpired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	expired := seedShed(repo, StateMaintenance)
	active := seedShed(repo, StateMaintenance)
	past := testNow.Add(-time.Minute)
	future := testNow.AddDate(0, 0, 2)
	e := repo.sheds[expired.ID]
	e.AvailableAt = &past
	repo.sheds[expired.ID] = e
	a := repo.sheds[active.ID]
	a.AvailableAt = &future
	repo.sheds[active.ID] = a

	n, err := svc.ReleaseDue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, StateFree, repo.sheds[expired.ID].State)
	require.Equal(t, StateMaintenance, repo.sheds[active.ID].State)
}

func TestDeleteOccupiedShedRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateOccupied)

	err := svc.Delete(context.Background(), sh.ID, 1)
	require.True(t, shared.IsKind(err, shared.KindShedUnavailable))

	free := seedShed(repo, StateFree)
	require.NoError(t, svc.Delete(context.Background(), free.ID, 1))
}

func TestDeleteShedWithBatchHistoryRefused(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateFree)
	repo.batchRefs[sh.ID] = 2

	err := svc.Delete(context.Background(), sh.ID, 1)
	require.True(t, shared.IsKind(err, shared.KindShedUnavailable))
	require.Contains(t, repo.sheds, sh.ID)
}

func TestShedWrongFarmIsShedNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	sh := seedShed(repo, StateFree)

	_, err := svc.Get(context.Background(), sh.ID, 9)
	require.True(t, shared.IsKind(err, shared.KindShedNotFound))
}
