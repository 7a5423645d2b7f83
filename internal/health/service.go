package health

import (
	"context"
	"fmt"
	"time"

	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
	"github.com/farmcore/farmcore/internal/stock"
)

// Tx exposes the health event row operations available inside a transaction.
type Tx interface {
	InsertHealthEvent(ctx context.Context, e Event) (int64, error)
}

// TxRepository is the transactional surface health orchestration runs on:
// event rows plus the batch, shed, stock, and cost operations bound to the
// same transaction.
type TxRepository interface {
	Tx
	flock.Tx
	shed.Tx
	stock.Tx
	costs.Tx
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListEvents(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Event, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records mortality and treatment events.
type Service struct {
	repo  RepositoryPort
	flock *flock.Service
	sheds *shed.Service
	stock *stock.Service
	costs *costs.Service
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, flockSvc *flock.Service, sheds *shed.Service, stockSvc *stock.Service, costsSvc *costs.Service, audit AuditPort) *Service {
	return &Service{
		repo:  repo,
		flock: flockSvc,
		sheds: sheds,
		stock: stockSvc,
		costs: costsSvc,
		audit: audit,
		now:   time.Now,
	}
}

// RecordMortality decrements the batch count and writes the event in one
// transaction. A batch fully depleted by mortality closes and sends its shed
// into the sanitary cooldown.
func (s *Service) RecordMortality(ctx context.Context, input MortalityInput) (MortalityResult, error) {
	var out MortalityResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBatchForUpdate(ctx, input.BatchID, input.FarmID)
		if err != nil {
			return err
		}
		newCount, depleted, err := s.flock.DecrementInTx(ctx, tx, input.BatchID, input.FarmID, input.Count, "mortality")
		if err != nil {
			return err
		}
		occurred := input.OccurredAt
		if occurred.IsZero() {
			occurred = s.now().UTC()
		}
		e := Event{
			FarmID:     input.FarmID,
			BatchID:    input.BatchID,
			Type:       EventMortality,
			BirdCount:  input.Count,
			Notes:      input.Notes,
			OccurredAt: occurred,
			CreatedAt:  s.now().UTC(),
		}
		id, err := tx.InsertHealthEvent(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
		if depleted {
			if err := tx.UpdateBatchState(ctx, input.BatchID, input.FarmID, flock.StateClosed); err != nil {
				return err
			}
			if err := s.sheds.ScheduleMaintenanceInTx(ctx, tx, b.ShedID, input.FarmID); err != nil {
				return err
			}
		}
		out = MortalityResult{Event: e, NewCount: newCount, Depleted: depleted}
		return nil
	})
	if err != nil {
		return MortalityResult{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "health:mortality", input.BatchID, map[string]any{
		"count": input.Count, "depleted": out.Depleted,
	})
	return out, nil
}

// RecordTreatment writes a vaccination or treatment event. When an inventory
// item is referenced, the dose is consumed from stock and its cost at
// consumption time lands as a medicine entry, all in the same transaction.
func (s *Service) RecordTreatment(ctx context.Context, input TreatmentInput) (Event, error) {
	if input.Type != EventVaccination && input.Type != EventTreatment {
		return Event{}, shared.E(shared.KindValidation, "event type must be vaccination or treatment")
	}
	if input.ItemID != nil && input.Quantity <= 0 {
		return Event{}, shared.E(shared.KindValidation, "quantity must be > 0 when an inventory item is used")
	}
	if input.WithdrawalDays < 0 {
		return Event{}, shared.E(shared.KindValidation, "withdrawal days must be >= 0")
	}
	var out Event
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBatchForUpdate(ctx, input.BatchID, input.FarmID)
		if err != nil {
			return err
		}
		occurred := input.OccurredAt
		if occurred.IsZero() {
			occurred = s.now().UTC()
		}
		e := Event{
			FarmID:     input.FarmID,
			BatchID:    input.BatchID,
			Type:       input.Type,
			ItemID:     input.ItemID,
			Notes:      input.Notes,
			OccurredAt: occurred,
			CreatedAt:  s.now().UTC(),
		}
		if input.WithdrawalDays > 0 {
			end := occurred.AddDate(0, 0, input.WithdrawalDays)
			e.WithdrawalEnd = &end
		}
		if input.ItemID != nil {
			mv, err := s.stock.ConsumeInTx(ctx, tx, stock.ConsumeInput{
				ItemID:    *input.ItemID,
				FarmID:    input.FarmID,
				Quantity:  input.Quantity,
				Reference: fmt.Sprintf("%s batch %s", input.Type, b.Code),
			})
			if err != nil {
				return err
			}
			e.QuantityUsed = input.Quantity
			if cost := input.Quantity * mv.UnitCost; cost > 0 {
				_, err = s.costs.RecordInTx(ctx, tx, costs.RecordInput{
					FarmID:      input.FarmID,
					BatchID:     &input.BatchID,
					Category:    costs.CategoryMedicine,
					Description: fmt.Sprintf("%s applied to batch %s", input.Type, b.Code),
					Amount:      cost,
					IncurredAt:  occurred,
				})
				if err != nil {
					return err
				}
			}
		}
		id, err := tx.InsertHealthEvent(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
		out = e
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "health:"+string(input.Type), input.BatchID, nil)
	return out, nil
}

// List returns health events for the farm, optionally one batch only.
func (s *Service) List(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 200
	}
	return s.repo.ListEvents(ctx, farmID, batchID, limit)
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
