package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://relay.example.com/")
	t.Setenv("MAIN_TOKEN", "123456:main-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.BaseURL != "https://relay.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.MainToken != "123456:main-secret" {
		t.Errorf("MainToken = %q", cfg.MainToken)
	}
	if got := cfg.Server.Addr(); got != "localhost:8000" {
		t.Errorf("Server.Addr() = %q, want localhost:8000", got)
	}
	if cfg.Telegram.APIURL != DefaultTelegramAPIURL {
		t.Errorf("Telegram.APIURL = %q", cfg.Telegram.APIURL)
	}
	if cfg.Telegram.RequestTimeout != DefaultTelegramRequestTimeout {
		t.Errorf("Telegram.RequestTimeout = %v", cfg.Telegram.RequestTimeout)
	}
	if len(cfg.Telegram.Commands) != 1 || cfg.Telegram.Commands[0].Command != "help" {
		t.Errorf("Telegram.Commands = %+v, want a single help entry", cfg.Telegram.Commands)
	}
	if cfg.Messages.BotAdded != DefaultMessageBotAdded || cfg.Messages.InvalidToken != DefaultMessageInvalidToken {
		t.Errorf("Messages = %+v", cfg.Messages)
	}
	if cfg.Audit.Retention != DefaultAuditRetention {
		t.Errorf("Audit.Retention = %v", cfg.Audit.Retention)
	}
	for _, name := range []string{TaskRegistrationLogPrune, TaskSQLMaintenance} {
		task, ok := cfg.Scheduler.Tasks[name]
		if !ok || !task.Enabled || task.Schedule == "" {
			t.Errorf("Scheduler.Tasks[%q] = %+v, %v", name, task, ok)
		}
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
base_url: https://file.example.com
main_token: "1:from-file"
server:
  host: 0.0.0.0
  port: 9090
telegram:
  request_timeout: 5s
  webhook_secret: s3cret
  commands:
    - command: help
      description: Get help
    - command: start
      description: Start
logger:
  level: debug
  json: true
scheduler:
  tasks:
    sql_maintenance:
      enabled: false
`)
	t.Setenv("RELAY_SERVER_PORT", "9191")
	t.Setenv("MAIN_TOKEN", "2:from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.BaseURL != "https://file.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MainToken != "2:from-env" {
		t.Errorf("MainToken = %q, want env to win over file", cfg.MainToken)
	}
	if got := cfg.Server.Addr(); got != "0.0.0.0:9191" {
		t.Errorf("Server.Addr() = %q, want 0.0.0.0:9191", got)
	}
	if cfg.Telegram.RequestTimeout != 5*time.Second {
		t.Errorf("Telegram.RequestTimeout = %v", cfg.Telegram.RequestTimeout)
	}
	if cfg.Telegram.WebhookSecret != "s3cret" {
		t.Errorf("Telegram.WebhookSecret = %q", cfg.Telegram.WebhookSecret)
	}
	if len(cfg.Telegram.Commands) != 2 {
		t.Errorf("Telegram.Commands = %+v, want 2 entries", cfg.Telegram.Commands)
	}
	if cfg.Logger.Level != "debug" || !cfg.Logger.JSON {
		t.Errorf("Logger = %+v", cfg.Logger)
	}
	if cfg.Scheduler.Tasks[TaskSQLMaintenance].Enabled {
		t.Error("sql_maintenance should be disabled by the file")
	}
	if !cfg.Scheduler.Tasks[TaskRegistrationLogPrune].Enabled {
		t.Error("registration_log_prune should keep its default")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing base url", env: map[string]string{"MAIN_TOKEN": "1:x"}},
		{name: "missing main token", env: map[string]string{"BASE_URL": "https://relay.example.com"}},
		{name: "bad base url", env: map[string]string{"BASE_URL": "not a url", "MAIN_TOKEN": "1:x"}},
		{name: "bad log level", env: map[string]string{"BASE_URL": "https://relay.example.com", "MAIN_TOKEN": "1:x", "RELAY_LOGGER_LEVEL": "loud"}},
		{name: "bad port", env: map[string]string{"BASE_URL": "https://relay.example.com", "MAIN_TOKEN": "1:x", "RELAY_SERVER_PORT": "70000"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BASE_URL", "")
			t.Setenv("MAIN_TOKEN", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig("")
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("LoadConfig() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	t.Setenv("BASE_URL", "https://relay.example.com")
	t.Setenv("MAIN_TOKEN", "1:x")

	path := writeConfig(t, "server: [unterminated")
	if _, err := LoadConfig(path); !errors.Is(err, ErrConfiguration) {
		t.Errorf("LoadConfig() error = %v, want ErrConfiguration", err)
	}
}
