package auth

import (
	"context"
	"strings"

	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/observability/logger"
)

type callbackService struct {
	deps Deps
}

// Callback completes the login. Token issuance happens strictly after the
// resolver's write has committed; any provider or persistence failure aborts
// the attempt with nothing persisted beyond what the resolver already
// committed.
func (s *callbackService) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.callback"))

	if strings.TrimSpace(req.Code) == "" {
		return nil, ErrInvalidCallback
	}

	p, err := s.deps.provider(req.Provider)
	if err != nil {
		return nil, err
	}

	tokens, err := p.Exchange(ctx, req.Code)
	if err != nil {
		log.Warn("code exchange failed", logger.Provider(req.Provider), logger.Err(err))
		return nil, err
	}

	profile, err := p.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		log.Warn("profile fetch failed", logger.Provider(req.Provider), logger.Err(err))
		return nil, err
	}

	user, err := s.deps.Resolver.GetOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	token, err := s.deps.Tokens.Generate(session.Input{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Provider: req.Provider,
		IP:       req.ClientIP,
	})
	if err != nil {
		return nil, err
	}

	log.Info("login completed", logger.UserID(user.ID), logger.Provider(req.Provider))
	return &CallbackResult{Token: token, User: user}, nil
}
