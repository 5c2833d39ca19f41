package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/punchline-api/punchline/internal/cache"
	"github.com/punchline-api/punchline/internal/http/providers"
	authsvc "github.com/punchline-api/punchline/internal/http/services/auth"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/identity"
	"github.com/punchline-api/punchline/internal/store/core"
	"github.com/punchline-api/punchline/internal/store/memory"
)

// fakeProvider answers the provider contract from canned data.
type fakeProvider struct {
	exchangeErr error
	userInfoErr error
	profile     providers.Profile
	gotCode     string
	gotToken    string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) AuthorizeURL(state string) string {
	return "https://fake.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	f.gotCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &providers.TokenSet{AccessToken: "at-1", TokenType: "Bearer"}, nil
}

func (f *fakeProvider) UserInfo(ctx context.Context, accessToken string) (*providers.Profile, error) {
	f.gotToken = accessToken
	if f.userInfoErr != nil {
		return nil, f.userInfoErr
	}
	p := f.profile
	return &p, nil
}

func newTestServices(t *testing.T, fake *fakeProvider) (*authsvc.Services, *memory.Store, *session.Service) {
	t.Helper()

	store := memory.New()
	tokens := session.NewService(session.Config{
		Issuer:     "https://punchline.test",
		Audience:   "punchline-api",
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	})

	registry := providers.NewRegistry()
	registry.RegisterFactory("google", func(cfg providers.Config) (providers.Provider, error) {
		return fake, nil
	})

	services := authsvc.NewServices(authsvc.Deps{
		Registry: registry,
		ProviderConfigs: map[string]providers.Config{
			"google": {ClientID: "id", ClientSecret: "secret"},
		},
		Cache:    cache.NewMemory("test"),
		Resolver: identity.NewResolver(store.Users()),
		Tokens:   tokens,
	})
	return services, store, tokens
}

func googleFake() *fakeProvider {
	return &fakeProvider{profile: providers.Profile{
		ProviderID: "g-1",
		Email:      "ana@example.com",
		Name:       "Ana Test",
		Provider:   core.ProviderGoogle,
	}}
}

func TestStart_ReturnsAuthorizeURLWithState(t *testing.T) {
	fake := googleFake()
	services, _, _ := newTestServices(t, fake)

	redirect, err := services.Start.Start(context.Background(), "google")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if state := u.Query().Get("state"); len(state) < 20 {
		t.Fatalf("state looks too short: %q", state)
	}
}

func TestStart_UnknownAndDisabledProviders(t *testing.T) {
	services, _, _ := newTestServices(t, googleFake())

	if _, err := services.Start.Start(context.Background(), "gitlab"); !errors.Is(err, authsvc.ErrProviderUnknown) {
		t.Fatalf("err = %v, want ErrProviderUnknown", err)
	}
	// Facebook is a known provider but not configured here.
	if _, err := services.Start.Start(context.Background(), "facebook"); !errors.Is(err, authsvc.ErrProviderDisabled) {
		t.Fatalf("err = %v, want ErrProviderDisabled", err)
	}
}

func TestCallback_CompletesLogin(t *testing.T) {
	fake := googleFake()
	services, store, tokens := newTestServices(t, fake)

	result, err := services.Callback.Callback(context.Background(), authsvc.CallbackRequest{
		Provider: "google",
		Code:     "auth-code",
		State:    "whatever",
		ClientIP: "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}

	if fake.gotCode != "auth-code" {
		t.Fatalf("exchanged code = %q", fake.gotCode)
	}
	if fake.gotToken != "at-1" {
		t.Fatalf("userinfo token = %q", fake.gotToken)
	}

	claims, err := tokens.DecodeClaims(result.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("sub = %q, user = %q", claims.UserID, result.User.ID)
	}
	if claims.Provider != "google" {
		t.Fatalf("provider claim = %q", claims.Provider)
	}
	if claims.IP != "203.0.113.7" {
		t.Fatalf("ip claim = %q", claims.IP)
	}

	if _, err := store.Users().FindByProviderID(context.Background(), core.ProviderGoogle, "g-1"); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestCallback_MissingCode(t *testing.T) {
	services, _, _ := newTestServices(t, googleFake())

	_, err := services.Callback.Callback(context.Background(), authsvc.CallbackRequest{
		Provider: "google",
		Code:     "   ",
	})
	if !errors.Is(err, authsvc.ErrInvalidCallback) {
		t.Fatalf("err = %v, want ErrInvalidCallback", err)
	}
}

func TestCallback_ProviderFailurePersistsNothing(t *testing.T) {
	fake := googleFake()
	fake.exchangeErr = &providers.ExternalServiceError{Provider: "google", Op: "exchange", Status: 502}
	services, store, _ := newTestServices(t, fake)

	_, err := services.Callback.Callback(context.Background(), authsvc.CallbackRequest{
		Provider: "google",
		Code:     "auth-code",
	})
	var extErr *providers.ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalServiceError", err)
	}
	if _, err := store.Users().FindByEmail(context.Background(), "ana@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("no user should exist after a failed exchange, got %v", err)
	}
}

func TestLogout_InvalidatesToken(t *testing.T) {
	services, _, tokens := newTestServices(t, googleFake())

	original, err := tokens.Generate(session.Input{UserID: "user-1", Provider: "google"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	invalidated, err := services.Logout.Logout(context.Background(), original)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if tokens.Validate(invalidated) {
		t.Fatal("invalidated token must not validate")
	}
	if !tokens.Validate(original) {
		t.Fatal("original token must remain valid")
	}
	if strings.Count(invalidated, ".") != 2 {
		t.Fatalf("invalidated token is not a JWT: %q", invalidated)
	}
}
