package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bipindra/PaymentOpsCopilot/internal/handler"
	"github.com/bipindra/PaymentOpsCopilot/internal/middleware"
)

// Dependencies holds all injected services needed by the router.
type Dependencies struct {
	DB          handler.DBPinger
	FrontendURL string
	Version     string
	Metrics     *middleware.Metrics
	MetricsReg  *prometheus.Registry

	Ingestor    handler.Ingestor
	Answerer    handler.Answerer
	Sources     handler.SourceLister
	DefaultTopK int
}

// New creates and configures the Chi router with all routes.
func New(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(deps.FrontendURL))
	if deps.Metrics != nil {
		r.Use(middleware.Monitoring(deps.Metrics))
	}

	r.Get("/api/health", handler.Health(deps.DB, deps.Version))
	if deps.MetricsReg != nil {
		r.Handle("/metrics", middleware.MetricsHandler(deps.MetricsReg))
	}

	r.Post("/api/ingest/text", handler.IngestText(deps.Ingestor))
	r.Post("/api/ingest/files", handler.IngestFiles(deps.Ingestor))
	r.Post("/api/ingest/samples", handler.IngestSamples(deps.Ingestor))

	r.Post("/api/ask", handler.Ask(deps.Answerer, deps.DefaultTopK))

	r.Get("/api/sources", handler.ListSources(deps.Sources))
	r.Get("/api/sources/{id}", handler.GetSource(deps.Sources))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "route not found",
		})
	})

	return r
}
