package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/punchline-api/punchline/internal/http/services/session"
)

func newService() *session.Service {
	return session.NewService(session.Config{
		Issuer:     "https://punchline.test",
		Audience:   "punchline-api",
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	})
}

func sampleInput() session.Input {
	return session.Input{
		UserID:   "user-1",
		Name:     "Ana Test",
		Email:    "ana@example.com",
		Provider: "google",
		IP:       "203.0.113.7",
	}
}

func TestGenerateAndDecode(t *testing.T) {
	svc := newService()

	token, err := svc.Generate(sampleInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !svc.Validate(token) {
		t.Fatal("freshly generated token must validate")
	}

	claims, err := svc.DecodeClaims(token)
	if err != nil {
		t.Fatalf("DecodeClaims: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("sub = %q", claims.UserID)
	}
	if claims.Email != "ana@example.com" {
		t.Fatalf("email = %q", claims.Email)
	}
	if claims.Provider != "google" {
		t.Fatalf("provider = %q", claims.Provider)
	}
	if claims.JTI == "" {
		t.Fatal("jti missing")
	}
	if claims.IssuedAt.IsZero() {
		t.Fatal("iat missing")
	}
}

func TestValidate_RejectsWrongKey(t *testing.T) {
	svc := newService()
	other := session.NewService(session.Config{
		Issuer:     "https://punchline.test",
		Audience:   "punchline-api",
		SigningKey: []byte("another-key-another-key-another-"),
	})

	token, err := other.Generate(sampleInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if svc.Validate(token) {
		t.Fatal("token signed with a different key must not validate")
	}
	if svc.Validate("not-a-jwt") {
		t.Fatal("garbage must not validate")
	}
}

func TestInvalidate_OnlyAffectsTheReturnedToken(t *testing.T) {
	svc := newService()

	original, err := svc.Generate(sampleInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	invalidated, err := svc.Invalidate(original)
	if err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if invalidated == original {
		t.Fatal("Invalidate must produce a different token")
	}
	if svc.Validate(invalidated) {
		t.Fatal("invalidated token must be expired")
	}
	// The original token is untouched; only the cookie copy is replaced.
	if !svc.Validate(original) {
		t.Fatal("original token must remain valid")
	}
}

func TestInvalidate_RejectsForeignToken(t *testing.T) {
	svc := newService()
	if _, err := svc.Invalidate("junk"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestFromRequest_CookieBeforeBearer(t *testing.T) {
	svc := newService()

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if _, ok := svc.FromRequest(r); ok {
		t.Fatal("no credentials should yield no token")
	}

	r.Header.Set("Authorization", "Bearer bearer-token")
	tok, ok := svc.FromRequest(r)
	if !ok || tok != "bearer-token" {
		t.Fatalf("bearer fallback failed: %q %v", tok, ok)
	}

	r.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "cookie-token"})
	tok, ok = svc.FromRequest(r)
	if !ok || tok != "cookie-token" {
		t.Fatalf("cookie must win over bearer: %q %v", tok, ok)
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	svc := newService()

	c := svc.SessionCookie("tok")
	if c.Name != session.DefaultCookieName {
		t.Fatalf("name = %q", c.Name)
	}
	if !c.HttpOnly {
		t.Fatal("cookie must be HttpOnly")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Fatal("cookie must be SameSite=Strict")
	}
	if c.MaxAge != int((180 * 24 * 3600)) {
		t.Fatalf("max age = %d, want 180 days", c.MaxAge)
	}

	del := svc.DeletionCookie()
	if del.MaxAge != -1 || del.Value != "" {
		t.Fatalf("deletion cookie must clear: maxage=%d value=%q", del.MaxAge, del.Value)
	}
}
