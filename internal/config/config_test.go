package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("port = %d, want %d", cfg.Port, defaultPort)
	}
	if !cfg.IsDev() {
		t.Error("default env should be development")
	}
	if cfg.DSN == "" {
		t.Error("expected DSN built from database defaults")
	}
	if cfg.Relay.CallTTL != defaultCallTTL {
		t.Errorf("call ttl = %v, want %v", cfg.Relay.CallTTL, defaultCallTTL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
port: 8080
env: production
jwt_secret: s3cret
allowed_origins:
  - "*.littlenest.app"
relay:
  call_ttl: 30s
database:
  host: db.internal
  user: nest
  password: pw
  name: nestdb
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("env should be production")
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.JWTSecret)
	}
	if cfg.Relay.CallTTL != 30*time.Second {
		t.Errorf("call ttl = %v, want 30s", cfg.Relay.CallTTL)
	}
	want := "nest:pw@tcp(db.internal:3306)/nestdb?charset=utf8mb4&parseTime=True&loc=Local"
	if cfg.DSN != want {
		t.Errorf("dsn = %q, want %q", cfg.DSN, want)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LN_PORT", "9001")
	t.Setenv("LN_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Port)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q, want env-secret", cfg.JWTSecret)
	}
}
