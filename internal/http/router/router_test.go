package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/punchline-api/punchline/internal/cache"
	authctrl "github.com/punchline-api/punchline/internal/http/controllers/auth"
	"github.com/punchline-api/punchline/internal/http/controllers/content"
	"github.com/punchline-api/punchline/internal/http/dto"
	"github.com/punchline-api/punchline/internal/http/providers"
	"github.com/punchline-api/punchline/internal/http/router"
	authsvc "github.com/punchline-api/punchline/internal/http/services/auth"
	"github.com/punchline-api/punchline/internal/http/services/session"
	"github.com/punchline-api/punchline/internal/identity"
	"github.com/punchline-api/punchline/internal/metrics"
	"github.com/punchline-api/punchline/internal/rate"
	"github.com/punchline-api/punchline/internal/store/core"
	"github.com/punchline-api/punchline/internal/store/memory"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "google" }

func (stubProvider) AuthorizeURL(state string) string {
	return "https://accounts.example/authorize?state=" + state
}

func (stubProvider) Exchange(ctx context.Context, code string) (*providers.TokenSet, error) {
	return &providers.TokenSet{AccessToken: "at-1"}, nil
}

func (stubProvider) UserInfo(ctx context.Context, accessToken string) (*providers.Profile, error) {
	return &providers.Profile{
		ProviderID: "g-1",
		Email:      "ana@example.com",
		Name:       "Ana Test",
		Provider:   core.ProviderGoogle,
	}, nil
}

type testServer struct {
	store  *memory.Store
	tokens *session.Service
	srv    *httptest.Server
}

func newTestServer(t *testing.T, authLimit int) *testServer {
	t.Helper()

	store := memory.New()
	store.PutJoke(core.Joke{ID: "j-1", Text: "first joke", Tags: []string{"test"}, CreatedAt: time.Now().UTC()})

	cacheClient := cache.NewMemory("test")
	tokens := session.NewService(session.Config{
		Issuer:     "https://punchline.test",
		Audience:   "punchline-api",
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	})

	registry := providers.NewRegistry()
	registry.RegisterFactory("google", func(cfg providers.Config) (providers.Provider, error) {
		return stubProvider{}, nil
	})

	services := authsvc.NewServices(authsvc.Deps{
		Registry:        registry,
		ProviderConfigs: map[string]providers.Config{"google": {ClientID: "id"}},
		Cache:           cacheClient,
		Resolver:        identity.NewResolver(store.Users()),
		Tokens:          tokens,
	})

	var authLimiter rate.Limiter
	if authLimit > 0 {
		authLimiter = rate.NewMemoryLimiter(authLimit, time.Hour)
	}

	handler := router.New(router.Deps{
		Start:       authctrl.NewStartController(services.Start),
		Callback:    authctrl.NewCallbackController(services.Callback, tokens),
		Logout:      authctrl.NewLogoutController(services.Logout, tokens),
		Me:          authctrl.NewMeController(store.Users()),
		Jokes:       content.NewJokesController(store.Jokes(), cacheClient),
		Tokens:      tokens,
		Metrics:     metrics.New("punchline_test"),
		AuthLimiter: authLimiter,
		Ready:       func(r *http.Request) error { return nil },
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{store: store, tokens: tokens, srv: srv}
}

// login completes the callback flow and returns the issued token.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	resp, err := http.Get(ts.srv.URL + "/auth/google/callback?code=auth-code&state=s")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.CallbackResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	require.Equal(t, "ana@example.com", body.User.Email)

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.DefaultCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "callback must set the session cookie")
	require.True(t, sessionCookie.HttpOnly)
	require.Equal(t, body.Token, sessionCookie.Value)

	return body.Token
}

func (ts *testServer) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginRedirect(t *testing.T) {
	ts := newTestServer(t, 0)

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.srv.URL + "/auth/google/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Location"), "https://accounts.example/authorize")
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestLoginRedirect_UnknownProvider(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.srv.URL + "/auth/gitlab/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJokesRequireSession(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.get(t, "/api/jokes", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2 := ts.get(t, "/api/jokes", "garbage-token")
	defer resp2.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestJokesFlow(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login(t)

	resp := ts.get(t, "/api/jokes", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list dto.JokeList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, "first joke", list.Jokes[0].Text)

	resp = ts.get(t, "/api/jokes/random", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.get(t, "/api/jokes/j-1", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joke dto.Joke
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&joke))
	require.Equal(t, "j-1", joke.ID)

	resp = ts.get(t, "/api/jokes/missing", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMeAndLogout(t *testing.T) {
	ts := newTestServer(t, 0)
	token := ts.login(t)

	resp := ts.get(t, "/auth/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me dto.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	resp.Body.Close()
	require.Equal(t, "ana@example.com", me.Email)

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/auth/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	logoutResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logoutResp.Body.Close()
	require.Equal(t, http.StatusOK, logoutResp.StatusCode)

	// Logout emits two Set-Cookie headers: the expired-token rewrite and the
	// deletion. The rewrite carries the invalidated token.
	var invalidated string
	var deleted bool
	for _, c := range logoutResp.Cookies() {
		if c.Name != session.DefaultCookieName {
			continue
		}
		if c.Value == "" && c.MaxAge < 0 {
			deleted = true
			continue
		}
		invalidated = c.Value
	}
	require.True(t, deleted, "logout must clear the session cookie")
	require.NotEmpty(t, invalidated, "logout must rewrite the session cookie")
	require.NotEqual(t, token, invalidated)
	require.False(t, ts.tokens.Validate(invalidated), "rewritten cookie token must be expired")

	// The bearer copy was never revoked; only the cookie was replaced.
	resp = ts.get(t, "/auth/me", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(ts.srv.URL + "/auth/google/login")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)
	}

	resp, err := client.Get(ts.srv.URL + "/auth/google/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}
