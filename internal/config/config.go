// Package config loads and validates the relay configuration from an optional
// YAML file and the environment.
package config

import (
	"time"
)

// Config is the complete relay configuration.
type Config struct {
	// BaseURL is the public URL under which the webhook paths are reachable.
	BaseURL   string `mapstructure:"base_url"   validate:"required,url"`
	MainToken string `mapstructure:"main_token" validate:"required"`

	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig controls the inbound HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"             validate:"required"`
	Port            int           `mapstructure:"port"             validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// TelegramConfig controls outbound Bot API calls and the registered webhooks.
type TelegramConfig struct {
	APIURL         string          `mapstructure:"api_url"         validate:"required,url"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout" validate:"min=1s,max=5m"`
	WebhookSecret  string          `mapstructure:"webhook_secret"  validate:"omitempty,max=256,printascii"`
	Commands       []CommandConfig `mapstructure:"commands"        validate:"dive"`
}

// CommandConfig is one entry of the command menu published for each sub-bot.
type CommandConfig struct {
	Command     string `mapstructure:"command"     validate:"required,max=32"`
	Description string `mapstructure:"description" validate:"required,max=256"`
}

// MessagesConfig holds user-facing reply templates.
type MessagesConfig struct {
	// BotAdded receives the verified bot's username.
	BotAdded     string `mapstructure:"bot_added"     validate:"required"`
	InvalidToken string `mapstructure:"invalid_token" validate:"required"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite file holding the registration audit log.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AuditConfig controls how long registration attempts are kept.
type AuditConfig struct {
	Retention time.Duration `mapstructure:"retention" validate:"min=1h"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// Addr returns the host:port the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return joinHostPort(c.Host, c.Port)
}
