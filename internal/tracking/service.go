package tracking

import (
	"context"
	"time"

	"github.com/farmcore/farmcore/internal/shared"
)

// Tx exposes the operations a growth record needs inside a transaction.
type Tx interface {
	BatchExists(ctx context.Context, batchID, farmID int64) (bool, error)
	WeekRecorded(ctx context.Context, batchID, farmID int64, week int) (bool, error)
	InsertRecord(ctx context.Context, r Record) (int64, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	ListRecords(ctx context.Context, batchID, farmID int64) ([]Record, error)
	DeleteRecord(ctx context.Context, recordID, farmID int64) error
}

// Service records and reads weekly growth measurements.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record writes one weekly measurement. The batch must resolve within the
// farm, and each batch week is measured at most once.
func (s *Service) Record(ctx context.Context, input RecordInput) (Record, error) {
	if input.Week <= 0 {
		return Record{}, shared.E(shared.KindValidation, "week must be > 0")
	}
	if input.AvgWeight <= 0 {
		return Record{}, shared.E(shared.KindValidation, "average weight must be > 0")
	}
	if input.FeedIntake < 0 {
		return Record{}, shared.E(shared.KindValidation, "feed intake must be >= 0")
	}
	recorded := input.RecordedAt
	if recorded.IsZero() {
		recorded = s.now().UTC()
	}

	var out Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.BatchExists(ctx, input.BatchID, input.FarmID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.E(shared.KindInvalidReference, "batch %d not found on this farm", input.BatchID)
		}
		taken, err := tx.WeekRecorded(ctx, input.BatchID, input.FarmID, input.Week)
		if err != nil {
			return err
		}
		if taken {
			return shared.E(shared.KindValidation, "week %d of batch %d is already recorded", input.Week, input.BatchID)
		}
		r := Record{
			FarmID:     input.FarmID,
			BatchID:    input.BatchID,
			Week:       input.Week,
			AvgWeight:  input.AvgWeight,
			FeedIntake: input.FeedIntake,
			Notes:      input.Notes,
			RecordedAt: recorded,
			CreatedAt:  s.now().UTC(),
		}
		id, err := tx.InsertRecord(ctx, r)
		if err != nil {
			return err
		}
		r.ID = id
		out = r
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// List returns the batch's measurements in week order.
func (s *Service) List(ctx context.Context, batchID, farmID int64) ([]Record, error) {
	return s.repo.ListRecords(ctx, batchID, farmID)
}

// Delete removes one measurement.
func (s *Service) Delete(ctx context.Context, recordID, farmID int64) error {
	return s.repo.DeleteRecord(ctx, recordID, farmID)
}
