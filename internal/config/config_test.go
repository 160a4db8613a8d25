package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: postgres://localhost/pharmakrypt
auth:
  jwt_secret: signing-key
  admin_key: root-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("default addr: %q", cfg.Server.Addr)
	}
	if cfg.Scan.RepeatWindow != 2*time.Second {
		t.Fatalf("default repeat window: %s", cfg.Scan.RepeatWindow)
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("default token ttl: %s", cfg.Auth.TokenTTL)
	}
	if cfg.Redis.Channel != "pharmakrypt:alerts" {
		t.Fatalf("default channel: %q", cfg.Redis.Channel)
	}
}

func TestLoad_Explicit(t *testing.T) {
	path := writeConfig(t, `
app:
  name: pharmakrypt
  log_level: debug
server:
  addr: ":9090"
  shutdown_timeout: 5s
db:
  dsn: postgres://localhost/pharmakrypt
redis:
  addr: localhost:6379
auth:
  jwt_secret: signing-key
  admin_key: root-key
  token_ttl: 1h
scan:
  repeat_window: 3s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Auth.TokenTTL != time.Hour || cfg.Scan.RepeatWindow != 3*time.Second {
		t.Fatalf("explicit values not applied: %+v", cfg)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	path := writeConfig(t, `
db:
  dsn: ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("want validation error for missing dsn")
	}
}
