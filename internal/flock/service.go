package flock

import (
	"context"
	"fmt"
	"time"

	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
)

// Tx exposes the batch row operations available inside a transaction.
type Tx interface {
	GetBatchForUpdate(ctx context.Context, batchID, farmID int64) (Batch, error)
	InsertBatch(ctx context.Context, b Batch) (Batch, error)
	UpdateBatchCount(ctx context.Context, batchID, farmID int64, count int) error
	UpdateBatchState(ctx context.Context, batchID, farmID int64, state State) error
	DeleteBatch(ctx context.Context, batchID, farmID int64) error
	DeleteAgendaForBatch(ctx context.Context, batchID, farmID int64) error
}

// TxRepository is the transactional surface batch orchestration runs on: the
// batch rows plus the shed, cost, and agenda operations bound to the same
// transaction. The purge operations clear rows that reference the batch so a
// delete never trips a foreign key.
type TxRepository interface {
	Tx
	shed.Tx
	costs.Tx
	sanitary.Tx
	DeleteCostEntriesForBatch(ctx context.Context, batchID, farmID int64) error
	DeleteHealthEventsForBatch(ctx context.Context, batchID, farmID int64) error
	CountSalesForBatch(ctx context.Context, batchID, farmID int64) (int64, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBatch(ctx context.Context, batchID, farmID int64) (Batch, error)
	ListBatches(ctx context.Context, farmID int64) ([]Batch, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns batch counts and the batch lifecycle.
type Service struct {
	repo     RepositoryPort
	sheds    *shed.Service
	costs    *costs.Service
	sanitary *sanitary.Service
	audit    AuditPort
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, sheds *shed.Service, costsSvc *costs.Service, sanitarySvc *sanitary.Service, audit AuditPort) *Service {
	return &Service{
		repo:     repo,
		sheds:    sheds,
		costs:    costsSvc,
		sanitary: sanitarySvc,
		audit:    audit,
		now:      time.Now,
	}
}

// Create performs the batch intake as one atomic unit: the batch row, the
// shed occupation, the purchase cost entry, and the sanitary agenda all land
// together or not at all.
func (s *Service) Create(ctx context.Context, input CreateInput) (Batch, error) {
	if input.Code == "" {
		return Batch{}, shared.E(shared.KindValidation, "batch code is required")
	}
	if input.Count <= 0 {
		return Batch{}, shared.E(shared.KindValidation, "batch count must be > 0")
	}
	if input.UnitPrice < 0 {
		return Batch{}, shared.E(shared.KindValidation, "unit price must be >= 0")
	}
	intake := input.IntakeDate
	if intake.IsZero() {
		intake = s.now().UTC().Truncate(24 * time.Hour)
	}

	// Plan config is read outside the transaction; parse failures never
	// block intake, only persistence errors do.
	plan, err := s.sanitary.Plan(ctx, input.FarmID)
	if err != nil {
		plan = sanitary.DefaultPlan
	}

	var created Batch
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.InsertBatch(ctx, Batch{
			FarmID:       input.FarmID,
			Code:         input.Code,
			Breed:        input.Breed,
			ShedID:       input.ShedID,
			InitialCount: input.Count,
			CurrentCount: input.Count,
			State:        StateAvailable,
			UnitPrice:    input.UnitPrice,
			IntakeDate:   intake,
			CreatedAt:    s.now().UTC(),
			UpdatedAt:    s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := s.sheds.OccupyInTx(ctx, tx, input.ShedID, input.FarmID, b.ID); err != nil {
			return err
		}
		if input.UnitPrice > 0 {
			_, err = s.costs.RecordInTx(ctx, tx, costs.RecordInput{
				FarmID:      input.FarmID,
				BatchID:     &b.ID,
				ShedID:      &input.ShedID,
				Category:    costs.CategoryChicks,
				Description: fmt.Sprintf("Purchase of batch %s (%d birds)", b.Code, b.InitialCount),
				Amount:      float64(input.Count) * input.UnitPrice,
				IncurredAt:  intake,
			})
			if err != nil {
				return err
			}
		}
		if _, err := s.sanitary.GenerateInTx(ctx, tx, sanitary.GenerateInput{
			FarmID:     input.FarmID,
			BatchID:    b.ID,
			BatchCode:  b.Code,
			IntakeDate: intake,
			PlanConfig: plan,
		}); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return Batch{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "flock:create", created.ID, map[string]any{
		"code": created.Code, "count": created.InitialCount, "shed_id": created.ShedID,
	})
	return created, nil
}

// Get loads a batch scoped to the farm.
func (s *Service) Get(ctx context.Context, batchID, farmID int64) (Batch, error) {
	return s.repo.GetBatch(ctx, batchID, farmID)
}

// List returns the farm's batches.
func (s *Service) List(ctx context.Context, farmID int64) ([]Batch, error) {
	return s.repo.ListBatches(ctx, farmID)
}

// Delete removes a batch record as an aborted cycle: its shed goes straight
// back to free with no cooldown, and its cost entries, health events, and
// pending agenda disappear with it. A batch with recorded sales is financial
// history and cannot be deleted.
func (s *Service) Delete(ctx context.Context, batchID, farmID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBatchForUpdate(ctx, batchID, farmID)
		if err != nil {
			return err
		}
		sold, err := tx.CountSalesForBatch(ctx, batchID, farmID)
		if err != nil {
			return err
		}
		if sold > 0 {
			return shared.E(shared.KindValidation,
				"batch %s has %d recorded sales and cannot be deleted", b.Code, sold)
		}
		if err := s.sheds.ReleaseInTx(ctx, tx, b.ShedID, farmID); err != nil {
			return err
		}
		if err := tx.DeleteHealthEventsForBatch(ctx, batchID, farmID); err != nil {
			return err
		}
		if err := tx.DeleteCostEntriesForBatch(ctx, batchID, farmID); err != nil {
			return err
		}
		if err := tx.DeleteAgendaForBatch(ctx, batchID, farmID); err != nil {
			return err
		}
		return tx.DeleteBatch(ctx, batchID, farmID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, farmID, "flock:delete", batchID, nil)
	return nil
}

// DecrementInTx reduces the batch count under lock. It is the single count
// check shared by the mortality and sale paths; the caller decides what a
// depletion means for the shed and the batch state.
func (s *Service) DecrementInTx(ctx context.Context, tx Tx, batchID, farmID int64, amount int, reason string) (int, bool, error) {
	if amount <= 0 {
		return 0, false, shared.E(shared.KindValidation, "decrement amount must be > 0")
	}
	b, err := tx.GetBatchForUpdate(ctx, batchID, farmID)
	if err != nil {
		return 0, false, err
	}
	if amount > b.CurrentCount {
		return 0, false, shared.E(shared.KindExceedsCount,
			"%s of %d exceeds current count %d of batch %s", reason, amount, b.CurrentCount, b.Code)
	}
	newCount := b.CurrentCount - amount
	if err := tx.UpdateBatchCount(ctx, batchID, farmID, newCount); err != nil {
		return 0, false, err
	}
	return newCount, newCount == 0, nil
}

// RestoreInTx adds birds back after a sale reversal, capped at the initial
// count, and forces the batch back to available.
func (s *Service) RestoreInTx(ctx context.Context, tx Tx, batchID, farmID int64, amount int) (Batch, error) {
	if amount <= 0 {
		return Batch{}, shared.E(shared.KindValidation, "restore amount must be > 0")
	}
	b, err := tx.GetBatchForUpdate(ctx, batchID, farmID)
	if err != nil {
		return Batch{}, err
	}
	newCount := b.CurrentCount + amount
	if newCount > b.InitialCount {
		newCount = b.InitialCount
	}
	if err := tx.UpdateBatchCount(ctx, batchID, farmID, newCount); err != nil {
		return Batch{}, err
	}
	if b.State != StateAvailable {
		if err := tx.UpdateBatchState(ctx, batchID, farmID, StateAvailable); err != nil {
			return Batch{}, err
		}
		b.State = StateAvailable
	}
	b.CurrentCount = newCount
	return b, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, farmID int64, action string, batchID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		FarmID:   farmID,
		Action:   action,
		Entity:   "batch",
		EntityID: fmt.Sprintf("%d", batchID),
		Meta:     meta,
	})
}
