package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/punchline-api/punchline/internal/observability/logger"
)

type startService struct {
	deps Deps
}

// Start generates an anti-forgery state value, records it server-side with a
// TTL and returns the provider's authorization URL.
//
// TODO: verify the recorded state against the callback's state parameter.
func (s *startService) Start(ctx context.Context, providerName string) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.start"))

	p, err := s.deps.provider(providerName)
	if err != nil {
		return "", err
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}

	if err := s.deps.Cache.Set(ctx, "oauth_state:"+state, providerName, s.deps.StateTTL); err != nil {
		// The state is not checked on callback yet; a cache miss here must
		// not block the login.
		log.Warn("failed to record oauth state", logger.Err(err))
	}

	log.Debug("login started", logger.Provider(providerName))
	return p.AuthorizeURL(state), nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
