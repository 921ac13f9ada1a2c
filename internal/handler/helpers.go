package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, domain.ErrorResponse{Error: msg})
}

func writeErrorDetails(w http.ResponseWriter, logger *zap.Logger, status int, msg, details string) {
	writeJSON(w, logger, status, domain.ErrorResponse{Error: msg, Details: details})
}

// writeJSON encodes data before writing the status. Encoding failures are
// logged and answered with a 500.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to encode response",
			zap.Int("status", status),
			zap.Error(err),
		)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// decodeJSON decodes the request body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &domain.ErrValidation{
				Field:   "body",
				Message: fmt.Sprintf("must not exceed %d bytes", tooLarge.Limit),
			}
		}
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var unavailable *domain.ErrUnavailable
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, logger, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, logger, http.StatusNotFound, notFound.Error())
	case errors.As(err, &unavailable):
		logger.Warn("feature unavailable", zap.String("feature", unavailable.Feature))
		writeError(w, logger, http.StatusServiceUnavailable, unavailable.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, logger, http.StatusServiceUnavailable, circuitOpen.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, logger, http.StatusGatewayTimeout, timeout.Error())
	case errors.As(err, &external):
		logger.Error("external service error",
			zap.String("service", external.Service),
			zap.Error(err),
		)
		writeErrorDetails(w, logger, http.StatusBadGateway, "upstream service failed", external.Service)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, "internal server error")
	}
}
