package sanitary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/farmcore/farmcore/internal/shared"
)

// Tx exposes the operations agenda generation needs inside a transaction.
// The batch intake orchestrator provides its own implementation bound to the
// same transaction.
type Tx interface {
	InsertAgendaEvent(ctx context.Context, e AgendaEvent) (int64, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	GetPlan(ctx context.Context, farmID int64) (string, error)
	UpsertPlan(ctx context.Context, farmID int64, plan string) error
	ListAgenda(ctx context.Context, farmID int64, batchID *int64, pendingOnly bool, limit int) ([]AgendaEvent, error)
	GetAgendaEvent(ctx context.Context, eventID, farmID int64) (AgendaEvent, error)
	SetAgendaCompleted(ctx context.Context, eventID, farmID int64, completed bool) error
	ListDue(ctx context.Context, before time.Time, limit int) ([]AgendaEvent, error)
}

// PlanCachePort abstracts the Redis plan cache.
type PlanCachePort interface {
	Get(ctx context.Context, farmID int64) (string, bool, error)
	Set(ctx context.Context, farmID int64, plan string) error
	Invalidate(ctx context.Context, farmID int64) error
}

// Service generates sanitary agendas and manages per-farm plan config.
type Service struct {
	repo        RepositoryPort
	cache       PlanCachePort
	logger      *slog.Logger
	defaultPlan string
	now         func() time.Time
}

// NewService builds Service. cache may be nil; lookups then always hit the
// database.
func NewService(repo RepositoryPort, cache PlanCachePort, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, defaultPlan: DefaultPlan, now: time.Now}
}

// SetDefaultPlan overrides the fallback plan used by farms without a stored
// one.
func (s *Service) SetDefaultPlan(plan string) {
	if plan != "" {
		s.defaultPlan = plan
	}
}

// Plan returns the farm's configured day-offset plan, reading through the
// cache. A farm with no stored plan gets the default.
func (s *Service) Plan(ctx context.Context, farmID int64) (string, error) {
	if s.cache != nil {
		if plan, ok, err := s.cache.Get(ctx, farmID); err == nil && ok {
			return plan, nil
		} else if err != nil {
			s.logger.Warn("plan cache read failed", slog.Int64("farm_id", farmID), slog.Any("error", err))
		}
	}
	plan, err := s.repo.GetPlan(ctx, farmID)
	if err != nil {
		return "", err
	}
	if plan == "" {
		plan = s.defaultPlan
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, farmID, plan); err != nil {
			s.logger.Warn("plan cache write failed", slog.Int64("farm_id", farmID), slog.Any("error", err))
		}
	}
	return plan, nil
}

// UpdatePlan stores a new plan string and invalidates the cache. The raw
// string is kept as given; unusable tokens are skipped at generation time.
func (s *Service) UpdatePlan(ctx context.Context, farmID int64, plan string) error {
	if len(plan) > 200 {
		return shared.E(shared.KindValidation, "plan config too long")
	}
	if err := s.repo.UpsertPlan(ctx, farmID, plan); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, farmID); err != nil {
			s.logger.Warn("plan cache invalidation failed", slog.Int64("farm_id", farmID), slog.Any("error", err))
		}
	}
	return nil
}

// GenerateInTx writes one agenda event per valid plan offset using the
// caller's transaction. It fails only on persistence errors.
func (s *Service) GenerateInTx(ctx context.Context, tx Tx, input GenerateInput) ([]AgendaEvent, error) {
	offsets := ParseOffsets(input.PlanConfig)
	events := make([]AgendaEvent, 0, len(offsets))
	for _, d := range offsets {
		e := AgendaEvent{
			FarmID:      input.FarmID,
			BatchID:     input.BatchID,
			Description: fmt.Sprintf("Sanitary check for batch %s (day %d)", input.BatchCode, d),
			DueAt:       input.IntakeDate.AddDate(0, 0, d),
			Completed:   false,
			CreatedAt:   s.now().UTC(),
		}
		id, err := tx.InsertAgendaEvent(ctx, e)
		if err != nil {
			return nil, err
		}
		e.ID = id
		events = append(events, e)
	}
	return events, nil
}

// ListAgenda returns agenda events for the farm, optionally one batch only.
func (s *Service) ListAgenda(ctx context.Context, farmID int64, batchID *int64, pendingOnly bool, limit int) ([]AgendaEvent, error) {
	if limit <= 0 {
		limit = 200
	}
	return s.repo.ListAgenda(ctx, farmID, batchID, pendingOnly, limit)
}

// SetCompleted toggles an agenda event's completion flag.
func (s *Service) SetCompleted(ctx context.Context, eventID, farmID int64, completed bool) (AgendaEvent, error) {
	e, err := s.repo.GetAgendaEvent(ctx, eventID, farmID)
	if err != nil {
		return AgendaEvent{}, err
	}
	if e.Completed == completed {
		return e, nil
	}
	if err := s.repo.SetAgendaCompleted(ctx, eventID, farmID, completed); err != nil {
		return AgendaEvent{}, err
	}
	e.Completed = completed
	return e, nil
}

// ListDue returns pending events due before the given horizon, across farms.
// Used by the reminder dispatch job.
func (s *Service) ListDue(ctx context.Context, horizon time.Duration, limit int) ([]AgendaEvent, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.repo.ListDue(ctx, s.now().UTC().Add(horizon), limit)
}
