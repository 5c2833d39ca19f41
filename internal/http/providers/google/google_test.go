package google_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/punchline-api/punchline/internal/http/providers"
	"github.com/punchline-api/punchline/internal/http/providers/google"
)

func newProvider(t *testing.T) *google.Provider {
	t.Helper()
	p, err := google.Factory(providers.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://punchline.test/auth/google/callback",
	})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	return p.(*google.Provider)
}

func TestAuthorizeURL(t *testing.T) {
	p := newProvider(t)

	raw := p.AuthorizeURL("state-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-123" {
		t.Fatalf("state = %q", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	p := newProvider(t)
	p.TokenEndpoint = srv.URL

	ts, err := p.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if ts.AccessToken != "at-1" {
		t.Fatalf("access token = %q", ts.AccessToken)
	}
	if gotForm.Get("grant_type") != "authorization_code" {
		t.Fatalf("grant_type = %q", gotForm.Get("grant_type"))
	}
	if gotForm.Get("code") != "auth-code" {
		t.Fatalf("code = %q", gotForm.Get("code"))
	}
	if gotForm.Get("client_secret") != "client-secret" {
		t.Fatalf("client_secret = %q", gotForm.Get("client_secret"))
	}
}

func TestExchange_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer srv.Close()

	p := newProvider(t)
	p.TokenEndpoint = srv.URL

	_, err := p.Exchange(context.Background(), "expired-code")
	var extErr *providers.ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalServiceError", err)
	}
	if extErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", extErr.Status)
	}
	if extErr.Op != "exchange" {
		t.Fatalf("op = %q", extErr.Op)
	}
}

func TestUserInfo(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":      "g-123",
			"email":   "ana@example.com",
			"name":    "Ana Test",
			"picture": "https://img.example/ana.png",
		})
	}))
	defer srv.Close()

	p := newProvider(t)
	p.UserInfoEndpoint = srv.URL

	profile, err := p.UserInfo(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	if gotAuth != "Bearer at-1" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if profile.ProviderID != "g-123" {
		t.Fatalf("provider id = %q", profile.ProviderID)
	}
	if profile.Provider != google.ProviderName {
		t.Fatalf("provider = %q", profile.Provider)
	}
	if profile.Email != "ana@example.com" {
		t.Fatalf("email = %q", profile.Email)
	}
}

func TestUserInfo_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newProvider(t)
	p.UserInfoEndpoint = srv.URL

	_, err := p.UserInfo(context.Background(), "bad-token")
	var extErr *providers.ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalServiceError", err)
	}
	if extErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d", extErr.Status)
	}
}
