package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/infra/observability"
	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

var tracer = otel.Tracer("handler")

// MaxBodyBytes caps request bodies; a full batch of snapshots fits well below.
const MaxBodyBytes = 4 << 20

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.Analysis, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.RequestSize(MaxBodyBytes))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler(logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Analysis
		// =============================================
		r.Post("/analysis", analyzeHandler(svc, logger))
		r.Post("/analysis/batch", analyzeBatchHandler(svc, logger))
		r.Post("/analysis/insights", insightsHandler(svc, logger))

		// =============================================
		// 2. Stored snapshots
		// =============================================
		r.Route("/users/{userId}", func(r chi.Router) {
			r.Use(UserIDMiddleware(logger))
			r.Put("/snapshot", putSnapshotHandler(svc, logger))
			r.Get("/snapshot", getSnapshotHandler(svc, logger))
			r.Get("/analysis", analyzeStoredHandler(svc, logger))
		})

		// =============================================
		// 3. Metrics
		// =============================================
		r.Get("/metrics/analysis", analysisMetricsHandler(svc, logger))
	})

	return r
}

func healthzHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := svc.Health(r.Context())
		code := http.StatusOK
		if status.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, logger, code, status)
	}
}

func readyzHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func analysisMetricsHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, svc.Metrics())
	}
}
