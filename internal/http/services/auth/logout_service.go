package auth

import (
	"context"

	"github.com/punchline-api/punchline/internal/observability/logger"
)

type logoutService struct {
	deps Deps
}

// Logout re-signs the token with a past expiration. The controller writes
// the invalidated value into the cookie and then clears the cookie; bearer
// copies of the original token are unaffected.
func (s *logoutService) Logout(ctx context.Context, token string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.logout"))

	invalidated, err := s.deps.Tokens.Invalidate(token)
	if err != nil {
		log.Debug("logout with unparseable token", logger.Err(err))
		return "", err
	}

	log.Debug("session invalidated")
	return invalidated, nil
}
