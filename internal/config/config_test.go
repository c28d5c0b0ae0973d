package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/vex"
telegram:
  bot_token: "123:abc"
auth:
  jwt_secret: "secret"
server:
  port: "9000"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/vex" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q, want 9000", cfg.Server.Port)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "456:def")
	path := writeConfig(t, `
database:
  url: "postgres://localhost/vex"
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
auth:
  jwt_secret: "secret"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Telegram.BotToken != "456:def" {
		t.Errorf("bot token = %q, want env value", cfg.Telegram.BotToken)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Server.Port)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/vex"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
