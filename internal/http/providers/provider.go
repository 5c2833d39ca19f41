// Package providers defines the OAuth provider abstraction.
//
// Each supported provider (Google, Microsoft, Facebook) lives in its own
// sub-package and normalizes its userinfo payload into a Profile. A Registry
// creates instances from factories registered at startup.
//
// Provider HTTP calls always set the Authorization header on the individual
// request, never on shared client state, so concurrent callbacks can share
// one client safely.
package providers

import (
	"context"
	"fmt"
)

// Provider is the contract every OAuth provider client implements.
type Provider interface {
	// Name returns the provider name ("google", "microsoft", "facebook").
	Name() string

	// AuthorizeURL builds the provider's authorization URL, embedding the
	// client id, redirect URI, scopes and the anti-forgery state value.
	AuthorizeURL(state string) string

	// Exchange trades an authorization code for provider tokens. Non-2xx
	// responses surface as *ExternalServiceError; no retries at this layer.
	Exchange(ctx context.Context, code string) (*TokenSet, error)

	// UserInfo fetches the provider's profile endpoint with a bearer token
	// and maps the payload into a Profile.
	UserInfo(ctx context.Context, accessToken string) (*Profile, error)
}

// Config is the static configuration for a provider instance.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// TokenSet contains tokens received from the provider's token endpoint.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// Profile is the normalized, provider-agnostic identity shape. It lives for
// one callback and is never persisted as-is.
type Profile struct {
	ProviderID string
	Email      string
	Name       string
	Picture    string
	Provider   string
}

// ExternalServiceError reports a failed token exchange or profile fetch. It
// carries the provider name and raw status for the error layer; secrets and
// token material never appear in it.
type ExternalServiceError struct {
	Provider string
	Op       string // "exchange" | "userinfo"
	Status   int
	Err      error
}

func (e *ExternalServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s failed with http %d", e.Provider, e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
