package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/harborview-pms/harborview/internal/billing"
	"github.com/harborview-pms/harborview/internal/frontdesk"
	"github.com/harborview-pms/harborview/internal/observability"
	"github.com/harborview-pms/harborview/internal/pos"
	"github.com/harborview-pms/harborview/internal/rooms"
	"github.com/harborview-pms/harborview/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	RoomsHandler     *rooms.Handler
	FrontdeskHandler *frontdesk.Handler
	POSHandler       *pos.Handler
	BillingHandler   *billing.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with Harborview defaults.
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

	if params.RoomsHandler != nil {
		r.Route("/rooms", func(sub chi.Router) {
			params.RoomsHandler.MountRoutes(sub)
		})
	}
	if params.FrontdeskHandler != nil {
		r.Route("/frontdesk", func(sub chi.Router) {
			params.FrontdeskHandler.MountRoutes(sub)
		})
	}
	if params.POSHandler != nil {
		r.Route("/pos", func(sub chi.Router) {
			params.POSHandler.MountRoutes(sub)
		})
	}
	if params.BillingHandler != nil {
		r.Route("/billing", func(sub chi.Router) {
			params.BillingHandler.MountRoutes(sub)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", func(sub chi.Router) {
			params.JobHandler.MountRoutes(sub)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
