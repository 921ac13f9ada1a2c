package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

// ============================================================
// 1. Analysis
// ============================================================

func analyzeHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analysis")
		defer span.End()

		var snapshot domain.FinancialSnapshot
		if err := decodeJSON(r, &snapshot); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.Analyze(ctx, &snapshot)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("flags.count", len(result.Flags)))
		writeJSON(w, logger, http.StatusOK, result)
	}
}

func analyzeBatchHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analysis/batch")
		defer span.End()

		var req domain.BatchAnalysisRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("batch.size", len(req.Snapshots)))

		results, err := svc.AnalyzeBatch(ctx, req.Snapshots)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, logger, http.StatusOK, domain.BatchAnalysisResponse{Results: results})
	}
}

func insightsHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analysis/insights")
		defer span.End()

		var req domain.InsightsRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if req.UserID != "" {
			span.SetAttributes(attribute.String("user.id", req.UserID))
		}

		resp, err := svc.Insights(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

func analyzeStoredHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/analysis")
		defer span.End()

		result, err := svc.AnalyzeStored(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}
