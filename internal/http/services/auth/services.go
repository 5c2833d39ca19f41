// Package auth orchestrates the social login flow: start (redirect to the
// provider), callback (exchange, resolve, issue session) and logout.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/punchline-api/punchline/internal/cache"
	"github.com/punchline-api/punchline/internal/http/providers"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/identity"
	"github.com/punchline-api/punchline/internal/store/core"
)

var (
	ErrProviderUnknown  = errors.New("auth: unknown provider")
	ErrProviderDisabled = errors.New("auth: provider not enabled")
	ErrInvalidCallback  = errors.New("auth: missing authorization code")
)

// StartService begins a social login by producing the provider redirect URL.
type StartService interface {
	Start(ctx context.Context, providerName string) (redirectURL string, err error)
}

// CallbackService completes a social login: code exchange, profile fetch,
// identity resolution and session issuance.
type CallbackService interface {
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error)
}

// LogoutService invalidates the cookie-held session token.
type LogoutService interface {
	Logout(ctx context.Context, token string) (invalidated string, err error)
}

// CallbackRequest carries the provider redirect parameters.
type CallbackRequest struct {
	Provider string
	Code     string
	State    string
	ClientIP string
}

// CallbackResult is the successful login outcome.
type CallbackResult struct {
	Token string
	User  *core.User
}

// Deps wires the collaborating components into the auth services.
type Deps struct {
	Registry        *providers.Registry
	ProviderConfigs map[string]providers.Config // enabled providers only
	Cache           cache.Client
	Resolver        *identity.Resolver
	Tokens          *session.Service
	StateTTL        time.Duration
}

// Services bundles the three auth services over shared dependencies.
type Services struct {
	Start    StartService
	Callback CallbackService
	Logout   LogoutService
}

// NewServices builds the auth service set.
func NewServices(d Deps) *Services {
	if d.StateTTL == 0 {
		d.StateTTL = 10 * time.Minute
	}
	return &Services{
		Start:    &startService{deps: d},
		Callback: &callbackService{deps: d},
		Logout:   &logoutService{deps: d},
	}
}

// provider resolves an enabled provider instance by name.
func (d *Deps) provider(name string) (providers.Provider, error) {
	cfg, ok := d.ProviderConfigs[name]
	if !ok {
		for _, known := range core.KnownProviders {
			if known == name {
				return nil, ErrProviderDisabled
			}
		}
		return nil, ErrProviderUnknown
	}
	return d.Registry.Get(name, cfg)
}
