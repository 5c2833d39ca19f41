package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/observability/logger"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxClaimsKey    ctxKey = "session_claims"
)

// WithRequestContext assigns a request id and injects a request-scoped
// logger into the context.
func WithRequestContext() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			log := logger.L().With(
				logger.RequestID(requestID),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)

			ctx := context.WithValue(r.Context(), ctxRequestIDKey, requestID)
			ctx = logger.ToContext(ctx, log)

			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom returns the request id, or "".
func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestIDKey).(string)
	return v
}

// withClaims injects the verified session claims.
func withClaims(ctx context.Context, c *session.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

// ClaimsFrom returns the verified session claims, or nil when the request is
// anonymous.
func ClaimsFrom(ctx context.Context) *session.Claims {
	v, _ := ctx.Value(ctxClaimsKey).(*session.Claims)
	return v
}
