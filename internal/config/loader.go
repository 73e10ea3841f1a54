package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every configuration failure.
var ErrConfiguration = errors.New("configuration error")

const envPrefix = "RELAY"

// Default values for optional configuration keys.
const (
	DefaultServerHost            = "localhost"
	DefaultServerPort            = 8000
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultTelegramAPIURL         = "https://api.telegram.org"
	DefaultTelegramRequestTimeout = 30 * time.Second

	DefaultMessageBotAdded     = "Bot @%s successful added"
	DefaultMessageInvalidToken = "Invalid token"

	DefaultLogLevel = "info"

	DefaultDatabasePath   = "relay.db"
	DefaultAuditRetention = 30 * 24 * time.Hour

	TaskRegistrationLogPrune = "registration_log_prune"
	TaskSQLMaintenance       = "sql_maintenance"
)

// DefaultCommands is the command menu published for every registered sub-bot.
var DefaultCommands = []CommandConfig{
	{Command: "help", Description: "Need help?"},
}

// LoadConfig reads configuration in this order, later sources winning:
//  1. Default values
//  2. The YAML file at path (optional; a missing file is not an error)
//  3. BASE_URL and MAIN_TOKEN, then RELAY_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare BASE_URL and MAIN_TOKEN are accepted as well.
	if err := v.BindEnv("base_url", envPrefix+"_BASE_URL", "BASE_URL"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind base_url: %v", ErrConfiguration, err)
	}
	if err := v.BindEnv("main_token", envPrefix+"_MAIN_TOKEN", "MAIN_TOKEN"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind main_token: %v", ErrConfiguration, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "")
	v.SetDefault("main_token", "")

	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("telegram.api_url", DefaultTelegramAPIURL)
	v.SetDefault("telegram.request_timeout", DefaultTelegramRequestTimeout)
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.commands", DefaultCommands)

	v.SetDefault("messages.bot_added", DefaultMessageBotAdded)
	v.SetDefault("messages.invalid_token", DefaultMessageInvalidToken)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("audit.retention", DefaultAuditRetention)

	v.SetDefault("scheduler.tasks."+TaskRegistrationLogPrune+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskRegistrationLogPrune+".schedule", "0 0 * * * *")
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".enabled", true)
	v.SetDefault("scheduler.tasks."+TaskSQLMaintenance+".schedule", "0 30 3 * * *")
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
