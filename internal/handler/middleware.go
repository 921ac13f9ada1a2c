package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/boddenberg/smartsave-bfa-go/internal/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDMiddleware validates the {userId} path parameter and injects it into
// the request context. Must be mounted on a route that declares {userId}.
func UserIDMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(chi.URLParam(r, "userId"))
			if userID == "" || len(userID) > service.MaxUserIDLength {
				logger.Warn("invalid user id",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, logger, http.StatusBadRequest,
					fmt.Sprintf("userId is required and must be at most %d characters", service.MaxUserIDLength))
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("user.id", userID))

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the user ID injected by UserIDMiddleware.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}
