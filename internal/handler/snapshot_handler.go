package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

// ============================================================
// 2. Stored snapshots
// ============================================================

func putSnapshotHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{userId}/snapshot")
		defer span.End()

		var snapshot domain.FinancialSnapshot
		if err := decodeJSON(r, &snapshot); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		stored, err := svc.SaveSnapshot(ctx, UserIDFromContext(ctx), &snapshot)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("snapshot.id", stored.ID))
		writeJSON(w, logger, http.StatusCreated, stored)
	}
}

func getSnapshotHandler(svc *service.Analysis, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/snapshot")
		defer span.End()

		stored, err := svc.GetSnapshot(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, logger, http.StatusOK, stored)
	}
}
