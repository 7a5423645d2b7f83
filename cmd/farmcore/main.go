package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmcore/farmcore/internal/app"
	"github.com/farmcore/farmcore/internal/audit"
	"github.com/farmcore/farmcore/internal/auth"
	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/health"
	"github.com/farmcore/farmcore/internal/observability"
	"github.com/farmcore/farmcore/internal/platform/cache"
	"github.com/farmcore/farmcore/internal/platform/db"
	"github.com/farmcore/farmcore/internal/sales"
	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shared"
	"github.com/farmcore/farmcore/internal/shed"
	"github.com/farmcore/farmcore/internal/stock"
	"github.com/farmcore/farmcore/internal/tracking"
)

func main() {
	if app.InTestMode() {
		return
	}
	if err := run(); err != nil {
		slog.Error("farmcore api exited", slog.Any("error", err))
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

	var planCache sanitary.PlanCachePort
	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		logger.Warn("redis unavailable, sanitary plan cache disabled", slog.Any("error", err))
	} else {
		defer redisClient.Close()
		planCache = sanitary.NewPlanCache(redisClient)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	auditLog := shared.NewAuditLogger(pool)
	idemStore := shared.NewIdempotencyStore(pool)

	stockSvc := stock.NewService(stock.NewRepository(pool), auditLog)
	costsSvc := costs.NewService(costs.NewRepository(pool))
	shedSvc := shed.NewService(shed.NewRepository(pool), cfg.ShedCooldownDays)
	sanitarySvc := sanitary.NewService(sanitary.NewRepository(pool), planCache, logger)
	sanitarySvc.SetDefaultPlan(cfg.DefaultSanitaryPlan)
	flockSvc := flock.NewService(flock.NewRepository(pool), shedSvc, costsSvc, sanitarySvc, auditLog)
	healthSvc := health.NewService(health.NewRepository(pool), flockSvc, shedSvc, stockSvc, costsSvc, auditLog)
	salesSvc := sales.NewService(sales.NewRepository(pool), flockSvc, shedSvc, idemStore, auditLog)
	trackingSvc := tracking.NewService(tracking.NewRepository(pool))
	authSvc := auth.NewService(auth.NewRepository(pool), tokens)
	auditSvc := audit.NewService(audit.NewRepository(pool))

	metrics := observability.NewMetrics()
	router := app.NewRouter(cfg, logger, metrics, tokens, app.Handlers{
		Auth:     auth.NewHandler(authSvc),
		Stock:    stock.NewHandler(stockSvc, logger),
		Costs:    costs.NewHandler(costsSvc),
		Sheds:    shed.NewHandler(shedSvc),
		Flock:    flock.NewHandler(flockSvc),
		Sanitary: sanitary.NewHandler(sanitarySvc),
		Health:   health.NewHandler(healthSvc),
		Sales:    sales.NewHandler(salesSvc),
		Tracking: tracking.NewHandler(trackingSvc),
		Audit:    audit.NewHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("farmcore api listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
