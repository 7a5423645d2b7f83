package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
)

// Tx exposes the sale row operations available inside a transaction.
type Tx interface {
	InsertSale(ctx context.Context, s Sale) (int64, error)
	GetSaleForUpdate(ctx context.Context, saleID, farmID int64) (Sale, error)
	DeleteSale(ctx context.Context, saleID, farmID int64) error
	MaxWithdrawalEnd(ctx context.Context, batchID, farmID int64) (*time.Time, error)
}

// TxRepository is the transactional surface a sale runs on: sale rows, the
// withdrawal lookup, and the batch and shed operations bound to the same
// transaction.
type TxRepository interface {
	Tx
	flock.Tx
	shed.Tx
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, saleID, farmID int64) (Sale, error)
	ListSales(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Sale, error)
}

// IdempotencyPort guards against replayed sale references, scoped per farm.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, farmID int64, key, module string) error
	Delete(ctx context.Context, farmID int64, key string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service performs the sale transaction and its administrative reversal.
type Service struct {
	repo  RepositoryPort
	flock *flock.Service
	sheds *shed.Service
	idem  IdempotencyPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. idem may be nil; sale references then carry no
// replay protection.
func NewService(repo RepositoryPort, flockSvc *flock.Service, sheds *shed.Service, idem IdempotencyPort, audit AuditPort) *Service {
	return &Service{
		repo:  repo,
		flock: flockSvc,
		sheds: sheds,
		idem:  idem,
		audit: audit,
		now:   time.Now,
	}
}

// Sell records a sale as one atomic unit: withdrawal check, count decrement,
// sale row, and, on depletion, the batch and shed transitions. Nothing
// partial is ever observable.
func (s *Service) Sell(ctx context.Context, input SellInput) (Sale, error) {
	if input.Quantity <= 0 {
		return Sale{}, shared.E(shared.KindValidation, "sale quantity must be > 0")
	}
	if input.Weight <= 0 {
		return Sale{}, shared.E(shared.KindValidation, "sale weight must be > 0")
	}
	if input.UnitPrice < 0 {
		return Sale{}, shared.E(shared.KindValidation, "unit price must be >= 0")
	}
	clientRef := input.Reference != ""
	if !clientRef {
		// Generated references are traceable but carry no replay semantics.
		input.Reference = uuid.NewString()
	}
	if s.idem != nil && clientRef {
		if err := s.idem.CheckAndInsert(ctx, input.FarmID, input.Reference, "sales"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Sale{}, shared.E(shared.KindValidation, "sale reference %q was already processed", input.Reference)
			}
			return Sale{}, err
		}
	}
	soldAt := input.SoldAt
	if soldAt.IsZero() {
		soldAt = s.now().UTC()
	}

	var out Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		end, err := tx.MaxWithdrawalEnd(ctx, input.BatchID, input.FarmID)
		if err != nil {
			return err
		}
		if end != nil && end.After(soldAt) {
			return shared.E(shared.KindBiosecurityHold,
				"batch %d is under withdrawal until %s", input.BatchID, end.Format("2006-01-02"))
		}
		b, err := tx.GetBatchForUpdate(ctx, input.BatchID, input.FarmID)
		if err != nil {
			return err
		}
		if b.State != flock.StateAvailable {
			return shared.E(shared.KindValidation, "batch %s is %s and cannot be sold", b.Code, b.State)
		}
		if input.Quantity > b.CurrentCount {
			return shared.E(shared.KindInsufficientStock,
				"only %d birds available in batch %s, %d requested", b.CurrentCount, b.Code, input.Quantity)
		}
		sale := Sale{
			FarmID:    input.FarmID,
			BatchID:   input.BatchID,
			Quantity:  input.Quantity,
			Weight:    input.Weight,
			UnitPrice: input.UnitPrice,
			Total:     float64(input.Quantity) * input.UnitPrice,
			Buyer:     input.Buyer,
			Reference: input.Reference,
			SoldAt:    soldAt,
			CreatedAt: s.now().UTC(),
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		_, depleted, err := s.flock.DecrementInTx(ctx, tx, input.BatchID, input.FarmID, input.Quantity, "sale")
		if err != nil {
			return err
		}
		if depleted {
			if err := tx.UpdateBatchState(ctx, input.BatchID, input.FarmID, flock.StateSoldOut); err != nil {
				return err
			}
			if err := s.sheds.ScheduleMaintenanceInTx(ctx, tx, b.ShedID, input.FarmID); err != nil {
				return err
			}
		}
		out = sale
		return nil
	})
	if err != nil {
		if s.idem != nil && clientRef {
			_ = s.idem.Delete(ctx, input.FarmID, input.Reference)
		}
		return Sale{}, err
	}
	s.recordAudit(ctx, input.ActorID, input.FarmID, "sales:sell", out.ID, map[string]any{
		"batch_id": input.BatchID, "quantity": input.Quantity, "total": out.Total,
	})
	return out, nil
}

// Delete reverses a sale administratively: the count comes back (capped at
// the initial count), the batch returns to available, and the shed is forced
// back to occupied. The withdrawal check is not re-run.
func (s *Service) Delete(ctx context.Context, saleID, farmID, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID, farmID)
		if err != nil {
			return err
		}
		b, err := s.flock.RestoreInTx(ctx, tx, sale.BatchID, farmID, sale.Quantity)
		if err != nil {
			return err
		}
		if err := s.sheds.OccupyInTxForce(ctx, tx, b.ShedID, farmID, b.ID); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, saleID, farmID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, farmID, "sales:delete", saleID, nil)
	return nil
}

// Get loads a sale scoped to the farm.
func (s *Service) Get(ctx context.Context, saleID, farmID int64) (Sale, error) {
	return s.repo.GetSale(ctx, saleID, farmID)
}

// List returns sales for the farm, optionally one batch only.
func (s *Service) List(ctx context.Context, farmID int64, batchID *int64, limit int) ([]Sale, error) {
	if limit <= 0 {
		limit = 200
	}
	return s.repo.ListSales(ctx, farmID, batchID, limit)
}

func (s *Service) recordAudit(ctx context.Context, actorID, farmID int64, action string, saleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		FarmID:   farmID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", saleID),
		Meta:     meta,
	})
}
