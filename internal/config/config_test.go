package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/punchline-api/punchline/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
session:
  signing_key: "dev-key"
providers:
  google:
    enabled: true
    client_id: "cid"
    client_secret: "secret"
    redirect_uri: "http://localhost:9090/auth/google/callback"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage driver default = %q", cfg.Storage.Driver)
	}
	if cfg.Session.CookieName != "punchline_session" {
		t.Fatalf("cookie name default = %q", cfg.Session.CookieName)
	}
	if cfg.Rate.Auth.Limit != 10 || cfg.Rate.API.Limit != 120 {
		t.Fatalf("rate defaults = %d/%d", cfg.Rate.Auth.Limit, cfg.Rate.API.Limit)
	}
	if !cfg.Providers.Google.Enabled || cfg.Providers.Google.ClientID != "cid" {
		t.Fatalf("google provider not loaded: %+v", cfg.Providers.Google)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
session:
  signing_key: "file-key"
`)
	t.Setenv("SESSION_SIGNING_KEY", "env-key")
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("MICROSOFT_CLIENT_ID", "ms-cid")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.SigningKey != "env-key" {
		t.Fatalf("signing key = %q, env must win", cfg.Session.SigningKey)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if !cfg.Providers.Microsoft.Enabled || cfg.Providers.Microsoft.ClientID != "ms-cid" {
		t.Fatal("setting MICROSOFT_CLIENT_ID must enable the provider")
	}
}

func TestLoad_MissingFileIsEnvOnly(t *testing.T) {
	t.Setenv("SESSION_SIGNING_KEY", "env-key")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Session.SigningKey != "env-key" {
		t.Fatalf("signing key = %q", cfg.Session.SigningKey)
	}
}

func TestLoad_Validation(t *testing.T) {
	if _, err := config.Load(writeConfig(t, `
storage:
  driver: "postgres"
session:
  signing_key: "k"
`)); err == nil {
		t.Fatal("postgres driver without dsn must fail")
	}

	if _, err := config.Load(writeConfig(t, `
session:
  signing_key: ""
`)); err == nil {
		t.Fatal("missing signing key must fail")
	}

	if _, err := config.Load(writeConfig(t, `
app:
  env: "prod"
session:
  signing_key: "short"
`)); err == nil {
		t.Fatal("short signing key in prod must fail")
	}
}
