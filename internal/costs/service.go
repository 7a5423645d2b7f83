package costs

import (
	"context"
	"time"

	"github.com/farmcore/farmcore/internal/shared"
)

// Tx exposes the operations a cost entry needs inside a transaction.
// Orchestrators that derive costs from other mutations (treatments, batch
// intake) provide their own implementation bound to the same transaction.
type Tx interface {
	BatchExists(ctx context.Context, batchID, farmID int64) (bool, error)
	ShedExists(ctx context.Context, shedID, farmID int64) (bool, error)
	InsertEntry(ctx context.Context, e Entry) (int64, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	ListEntries(ctx context.Context, f Filter) ([]Entry, error)
	SummarizeByCategory(ctx context.Context, farmID int64, batchID *int64) ([]CategoryTotal, error)
}

// Service records and reads cost entries.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record writes a cost entry inside its own transaction.
func (s *Service) Record(ctx context.Context, input RecordInput) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entry, err = s.RecordInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// RecordInTx writes a cost entry using the caller's transaction. References
// to batches or sheds must resolve within the same farm.
func (s *Service) RecordInTx(ctx context.Context, tx Tx, input RecordInput) (Entry, error) {
	if input.Amount <= 0 {
		return Entry{}, shared.E(shared.KindValidation, "cost amount must be > 0")
	}
	if !validCategory(input.Category) {
		return Entry{}, shared.E(shared.KindValidation, "unknown cost category %q", input.Category)
	}
	if input.BatchID != nil {
		ok, err := tx.BatchExists(ctx, *input.BatchID, input.FarmID)
		if err != nil {
			return Entry{}, err
		}
		if !ok {
			return Entry{}, shared.E(shared.KindInvalidReference, "batch %d not found on this farm", *input.BatchID)
		}
	}
	if input.ShedID != nil {
		ok, err := tx.ShedExists(ctx, *input.ShedID, input.FarmID)
		if err != nil {
			return Entry{}, err
		}
		if !ok {
			return Entry{}, shared.E(shared.KindInvalidReference, "shed %d not found on this farm", *input.ShedID)
		}
	}
	incurred := input.IncurredAt
	if incurred.IsZero() {
		incurred = s.now().UTC()
	}
	entry := Entry{
		FarmID:      input.FarmID,
		BatchID:     input.BatchID,
		ShedID:      input.ShedID,
		Category:    input.Category,
		Description: input.Description,
		Amount:      input.Amount,
		IncurredAt:  incurred,
		CreatedAt:   s.now().UTC(),
	}
	id, err := tx.InsertEntry(ctx, entry)
	if err != nil {
		return Entry{}, err
	}
	entry.ID = id
	return entry, nil
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = 200
	}
	if f.Category != "" && !validCategory(f.Category) {
		return nil, shared.E(shared.KindValidation, "unknown cost category %q", f.Category)
	}
	return s.repo.ListEntries(ctx, f)
}

// Summary totals entries per category for the farm, optionally scoped to one
// batch.
func (s *Service) Summary(ctx context.Context, farmID int64, batchID *int64) ([]CategoryTotal, error) {
	return s.repo.SummarizeByCategory(ctx, farmID, batchID)
}
