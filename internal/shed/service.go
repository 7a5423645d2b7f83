package shed

import (
	"context"
	"time"

	"github.com/farmcore/farmcore/internal/shared"
)

// Tx exposes the row operations a shed transition needs inside a transaction.
// Orchestrators that move sheds as part of a wider unit of work (batch intake,
// sales, mortality) provide their own implementation bound to the same
// transaction.
type Tx interface {
	GetShedForUpdate(ctx context.Context, shedID, farmID int64) (Shed, error)
	UpdateShedState(ctx context.Context, shedID, farmID int64, state State, batchID *int64, availableAt *time.Time) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	CreateShed(ctx context.Context, s Shed) (Shed, error)
	GetShed(ctx context.Context, shedID, farmID int64) (Shed, error)
	ListSheds(ctx context.Context, farmID int64) ([]Shed, error)
	DeleteShed(ctx context.Context, shedID, farmID int64) error
	HasBatches(ctx context.Context, shedID, farmID int64) (bool, error)
	ReleaseDue(ctx context.Context, now time.Time) (int64, error)
}

// Service owns the free/occupied/maintenance state machine.
type Service struct {
	repo         RepositoryPort
	cooldownDays int
	now          func() time.Time
}

// NewService builds Service. cooldownDays <= 0 falls back to the default.
func NewService(repo RepositoryPort, cooldownDays int) *Service {
	if cooldownDays <= 0 {
		cooldownDays = DefaultCooldownDays
	}
	return &Service{repo: repo, cooldownDays: cooldownDays, now: time.Now}
}

// CooldownUntil computes the maintenance end date from now.
func (s *Service) CooldownUntil() time.Time {
	return s.now().UTC().AddDate(0, 0, s.cooldownDays)
}

// Create registers a new shed in the free state.
func (s *Service) Create(ctx context.Context, input CreateInput) (Shed, error) {
	if input.Name == "" {
		return Shed{}, shared.E(shared.KindValidation, "shed name is required")
	}
	if input.Capacity <= 0 {
		return Shed{}, shared.E(shared.KindValidation, "shed capacity must be > 0")
	}
	return s.repo.CreateShed(ctx, Shed{
		FarmID:    input.FarmID,
		Name:      input.Name,
		Capacity:  input.Capacity,
		State:     StateFree,
		UpdatedAt: s.now().UTC(),
	})
}

// Get loads a shed, lazily releasing it when its cooldown has passed.
func (s *Service) Get(ctx context.Context, shedID, farmID int64) (Shed, error) {
	sh, err := s.repo.GetShed(ctx, shedID, farmID)
	if err != nil {
		return Shed{}, err
	}
	return s.tick(ctx, sh)
}

// List returns the farm's sheds, lazily releasing any whose cooldown passed.
func (s *Service) List(ctx context.Context, farmID int64) ([]Shed, error) {
	sheds, err := s.repo.ListSheds(ctx, farmID)
	if err != nil {
		return nil, err
	}
	for i := range sheds {
		sheds[i], err = s.tick(ctx, sheds[i])
		if err != nil {
			return nil, err
		}
	}
	return sheds, nil
}

// Delete removes a shed. A shed hosting a live batch, or one still referenced
// by batch history, cannot be deleted.
func (s *Service) Delete(ctx context.Context, shedID, farmID int64) error {
	sh, err := s.repo.GetShed(ctx, shedID, farmID)
	if err != nil {
		return err
	}
	if sh.State == StateOccupied {
		return shared.E(shared.KindShedUnavailable, "shed %q is occupied and cannot be deleted", sh.Name)
	}
	referenced, err := s.repo.HasBatches(ctx, shedID, farmID)
	if err != nil {
		return err
	}
	if referenced {
		return shared.E(shared.KindShedUnavailable, "shed %q is referenced by batch records and cannot be deleted", sh.Name)
	}
	return s.repo.DeleteShed(ctx, shedID, farmID)
}

// Release explicitly returns a maintenance shed to the free state.
func (s *Service) Release(ctx context.Context, shedID, farmID int64) (Shed, error) {
	var out Shed
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		sh, err := tx.GetShedForUpdate(ctx, shedID, farmID)
		if err != nil {
			return err
		}
		if sh.State != StateMaintenance {
			return shared.E(shared.KindShedUnavailable, "shed %q is %s, not in maintenance", sh.Name, sh.State)
		}
		if err := tx.UpdateShedState(ctx, shedID, farmID, StateFree, nil, nil); err != nil {
			return err
		}
		sh.State = StateFree
		sh.BatchID = nil
		sh.AvailableAt = nil
		out = sh
		return nil
	})
	if err != nil {
		return Shed{}, err
	}
	return out, nil
}

// ReleaseDue frees every shed across farms whose cooldown has elapsed.
// Used by the periodic sweep so the lazy tick is not the only path.
func (s *Service) ReleaseDue(ctx context.Context) (int64, error) {
	return s.repo.ReleaseDue(ctx, s.now().UTC())
}

// OccupyInTx moves a free shed to occupied for the batch.
func (s *Service) OccupyInTx(ctx context.Context, tx Tx, shedID, farmID, batchID int64) error {
	sh, err := tx.GetShedForUpdate(ctx, shedID, farmID)
	if err != nil {
		return err
	}
	if sh.State == StateMaintenance && sh.AvailableAt != nil && !sh.AvailableAt.After(s.now().UTC()) {
		sh.State = StateFree
	}
	if sh.State != StateFree {
		return shared.E(shared.KindShedUnavailable, "shed %q is %s", sh.Name, sh.State)
	}
	return tx.UpdateShedState(ctx, shedID, farmID, StateOccupied, &batchID, nil)
}

// ReleaseInTx moves an occupied shed straight to free, skipping the cooldown.
// Used when a batch record is deleted (aborted cycle).
func (s *Service) ReleaseInTx(ctx context.Context, tx Tx, shedID, farmID int64) error {
	if _, err := tx.GetShedForUpdate(ctx, shedID, farmID); err != nil {
		return err
	}
	return tx.UpdateShedState(ctx, shedID, farmID, StateFree, nil, nil)
}

// ScheduleMaintenanceInTx moves a shed to maintenance until the cooldown ends.
// Applied on any full depletion of the housed batch.
func (s *Service) ScheduleMaintenanceInTx(ctx context.Context, tx Tx, shedID, farmID int64) error {
	if _, err := tx.GetShedForUpdate(ctx, shedID, farmID); err != nil {
		return err
	}
	until := s.CooldownUntil()
	return tx.UpdateShedState(ctx, shedID, farmID, StateMaintenance, nil, &until)
}

// OccupyInTxForce restores occupancy regardless of current state. Used by the
// administrative sale reversal, which must put the batch back in its shed.
func (s *Service) OccupyInTxForce(ctx context.Context, tx Tx, shedID, farmID, batchID int64) error {
	if _, err := tx.GetShedForUpdate(ctx, shedID, farmID); err != nil {
		return err
	}
	return tx.UpdateShedState(ctx, shedID, farmID, StateOccupied, &batchID, nil)
}

// tick applies the lazy maintenance-to-free transition on a read path.
func (s *Service) tick(ctx context.Context, sh Shed) (Shed, error) {
	if sh.State != StateMaintenance || sh.AvailableAt == nil || sh.AvailableAt.After(s.now().UTC()) {
		return sh, nil
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		fresh, err := tx.GetShedForUpdate(ctx, sh.ID, sh.FarmID)
		if err != nil {
			return err
		}
		// Another reader may have released it already.
		if fresh.State != StateMaintenance {
			sh = fresh
			return nil
		}
		if err := tx.UpdateShedState(ctx, sh.ID, sh.FarmID, StateFree, nil, nil); err != nil {
			return err
		}
		sh.State = StateFree
		sh.BatchID = nil
		sh.AvailableAt = nil
		return nil
	})
	if err != nil {
		return Shed{}, err
	}
	return sh, nil
}
