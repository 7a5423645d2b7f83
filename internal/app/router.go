package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/audit"
	"github.com/farmcore/farmcore/internal/auth"
	"github.com/farmcore/farmcore/internal/costs"
	"github.com/farmcore/farmcore/internal/flock"
	"github.com/farmcore/farmcore/internal/health"
	"github.com/farmcore/farmcore/internal/observability"
	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/sales"
	"github.com/farmcore/farmcore/internal/sanitary"
	"github.com/farmcore/farmcore/internal/shed"
	"github.com/farmcore/farmcore/internal/stock"
	"github.com/farmcore/farmcore/internal/tracking"
)

// Handlers aggregates every HTTP handler mounted by the router.
type Handlers struct {
	Auth     *auth.Handler
	Stock    *stock.Handler
	Costs    *costs.Handler
	Sheds    *shed.Handler
	Flock    *flock.Handler
	Sanitary *sanitary.Handler
	Health   *health.Handler
	Sales    *sales.Handler
	Tracking *tracking.Handler
	Audit    *audit.Handler
}

// NewRouter assembles the full HTTP surface. Everything under /api except
// /api/auth requires a valid bearer token.
func NewRouter(cfg *Config, logger *slog.Logger, metrics *observability.Metrics, tokens *auth.TokenIssuer, h Handlers) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: logger, Config: cfg}) {
		r.Use(mw)
	}
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", h.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticator(tokens))
			r.Route("/stock", h.Stock.Routes)
			r.Route("/costs", h.Costs.Routes)
			r.Route("/sheds", h.Sheds.Routes)
			r.Route("/batches", h.Flock.Routes)
			r.Route("/sanitary", h.Sanitary.Routes)
			r.Route("/health-events", h.Health.Routes)
			r.Route("/sales", h.Sales.Routes)
			r.Route("/tracking", h.Tracking.Routes)
			r.Route("/audit", h.Audit.Routes)
		})
	})

	return r
}
