package facebook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/punchline-api/punchline/internal/http/providers"
	"github.com/punchline-api/punchline/internal/http/providers/facebook"
)

func newProvider(t *testing.T) *facebook.Provider {
	t.Helper()
	p, err := facebook.Factory(providers.Config{
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		RedirectURI:  "https://punchline.test/auth/facebook/callback",
	})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	return p.(*facebook.Provider)
}

func TestAuthorizeURL_CommaJoinedScopes(t *testing.T) {
	p := newProvider(t)

	u, err := url.Parse(p.AuthorizeURL("state-1"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Facebook wants comma-separated scopes, unlike the space-joined OAuth2
	// default.
	if got := u.Query().Get("scope"); got != "email,public_profile" {
		t.Fatalf("scope = %q", got)
	}
}

func TestUserInfo_NestedPicture(t *testing.T) {
	var gotFields string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFields = r.URL.Query().Get("fields")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "fb-9",
			"name":  "Ana Test",
			"email": "ana@example.com",
			"picture": map[string]any{
				"data": map[string]any{"url": "https://graph.example/pic.jpg"},
			},
		})
	}))
	defer srv.Close()

	p := newProvider(t)
	p.UserInfoEndpoint = srv.URL

	profile, err := p.UserInfo(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	if gotFields != "id,name,email,picture.width(256)" {
		t.Fatalf("fields = %q", gotFields)
	}
	if profile.Picture != "https://graph.example/pic.jpg" {
		t.Fatalf("picture = %q", profile.Picture)
	}
	if profile.ProviderID != "fb-9" {
		t.Fatalf("provider id = %q", profile.ProviderID)
	}
}

func TestUserInfo_MissingEmailIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Users can deny the email permission; Graph then omits the field.
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "fb-9", "name": "Ana Test"})
	}))
	defer srv.Close()

	p := newProvider(t)
	p.UserInfoEndpoint = srv.URL

	profile, err := p.UserInfo(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	// The identity layer decides what to do with a missing email.
	if profile.Email != "" {
		t.Fatalf("email = %q", profile.Email)
	}
}
