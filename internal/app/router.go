package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vigilpos/vigilpos/internal/closing"
	"github.com/vigilpos/vigilpos/internal/compliance"
	"github.com/vigilpos/vigilpos/internal/credit"
	"github.com/vigilpos/vigilpos/internal/observability"
	"github.com/vigilpos/vigilpos/internal/periods"
	"github.com/vigilpos/vigilpos/internal/rbac"
	"github.com/vigilpos/vigilpos/internal/sessions"
	"github.com/vigilpos/vigilpos/internal/stock"
	"github.com/vigilpos/vigilpos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	PeriodsHandler     *periods.Handler
	ClosingHandler     *closing.Handler
	CreditHandler      *credit.Handler
	StockHandler       *stock.Handler
	ComplianceHandler  *compliance.Handler
	SessionsHandler    *sessions.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.PeriodsHandler != nil {
		r.Route("/periods", params.PeriodsHandler.MountRoutes)
	}
	if params.ClosingHandler != nil {
		r.Route("/closing", params.ClosingHandler.MountRoutes)
	}
	if params.CreditHandler != nil {
		r.Route("/credit", params.CreditHandler.MountRoutes)
	}
	if params.StockHandler != nil {
		r.Route("/stock", params.StockHandler.MountRoutes)
	}
	if params.ComplianceHandler != nil {
		r.Route("/compliance", params.ComplianceHandler.MountRoutes)
	}
	if params.SessionsHandler != nil {
		r.Route("/sessions", params.SessionsHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
