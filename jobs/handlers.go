package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
)

// agendaScanHorizon is how far ahead the scan looks for due events.
const agendaScanHorizon = 24 * time.Hour

// NewAgendaScanHandler lists due agenda events and enqueues one reminder per
// event.
func NewAgendaScanHandler(svc *sanitary.Service, client *Client, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		events, err := svc.ListDue(ctx, agendaScanHorizon, 500)
		if err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, e := range events {
			e := e
			g.Go(func() error {
				_, err := client.EnqueueAgendaReminder(gctx, AgendaReminderPayload{
					EventID:     e.ID,
					FarmID:      e.FarmID,
					BatchID:     e.BatchID,
					Description: e.Description,
					DueAt:       e.DueAt,
				})
				if err != nil {
					logger.Warn("enqueue agenda reminder", slog.Int64("event_id", e.ID), slog.Any("error", err))
				}
				return nil
			})
		}
		_ = g.Wait()
		logger.Info("agenda scan complete", slog.Int("due_events", len(events)))
		return nil
	}
}

// NewAgendaReminderHandler processes one reminder. Delivery is a log line
// until a notification channel is wired up.
func NewAgendaReminderHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(_ context.Context, t *asynq.Task) error {
		var payload AgendaReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("sanitary agenda reminder",
			slog.Int64("farm_id", payload.FarmID),
			slog.Int64("batch_id", payload.BatchID),
			slog.String("description", payload.Description),
			slog.Time("due_at", payload.DueAt))
		return nil
	}
}

// NewShedSweepHandler releases overdue maintenance sheds across farms.
func NewShedSweepHandler(svc *shed.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		released, err := svc.ReleaseDue(ctx)
		if err != nil {
			return err
		}
		if released > 0 {
			logger.Info("shed cooldown sweep", slog.Int64("released", released))
		}
		return nil
	}
}

// NewIdempotencyCleanupHandler prunes keys older than the retention window.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		dropped, err := store.Cleanup(ctx, 30*24*time.Hour)
		if err != nil {
			logger.Warn("idempotency cleanup", slog.Any("error", err))
			return err
		}
		if dropped > 0 {
			logger.Info("idempotency cleanup", slog.Int64("dropped", dropped))
		}
		return nil
	}
}
