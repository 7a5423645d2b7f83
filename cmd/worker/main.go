package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/farmcore/farmcore/internal/app"
	"github.com/farmcore/farmcore/internal/observability"
	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
	"github.com/farmcore/farmcore/jobs"
)

func main() {
	if app.InTestMode() {
		return
	}
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("farmcore worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnLifetime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	client := jobs.NewClient(redisOpts)
	defer client.Close()

	shedSvc := shed.NewService(shed.NewRepository(pool), cfg.ShedCooldownDays)
	sanitarySvc := sanitary.NewService(sanitary.NewRepository(pool), nil, logger)
	idemStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Metrics:   metrics,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAgendaScan, Handler: jobs.NewAgendaScanHandler(sanitarySvc, client, logger)},
			{Type: jobs.TaskAgendaReminder, Handler: jobs.NewAgendaReminderHandler(logger)},
			{Type: jobs.TaskShedSweep, Handler: jobs.NewShedSweepHandler(shedSvc, logger)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idemStore, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 1h", Task: jobs.NewShedSweepTask()},
			{Spec: "0 6 * * *", Task: jobs.NewAgendaScanTask()},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		return err
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", slog.Any("error", err))
		}
	}()
	defer metricsSrv.Close()

	logger.Info("farmcore worker starting", slog.String("redis", cfg.RedisAddr))
	return worker.Run(ctx)
}
