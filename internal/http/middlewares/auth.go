package middlewares

import (
	"net/http"

	httperrors "github.com/punchline-api/punchline/internal/http/errors"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/observability/logger"
)

// WithSessionAuth requires a valid session token (cookie first, bearer
// fallback) and injects the verified claims into the context.
func WithSessionAuth(tokens *session.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokens.FromRequest(r)
			if !ok {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}

			claims, err := tokens.DecodeClaims(token)
			if err != nil {
				logger.From(r.Context()).Debug("session token rejected", logger.Err(err))
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			ctx := withClaims(r.Context(), claims)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
