// Package config loads the bot configuration from an optional YAML file and
// BOT_* environment variables, applies defaults and validates the result.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every load or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete application configuration.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// TelegramConfig holds Bot API access settings.
type TelegramConfig struct {
	Token  string `mapstructure:"token"   validate:"required"`
	APIURL string `mapstructure:"api_url" validate:"required,url"`

	// PollTimeout is the long-poll timeout sent to the platform.
	PollTimeout time.Duration `mapstructure:"poll_timeout" validate:"min=0s,max=10m"`
	// RequestTimeout is the client-side allowance on top of PollTimeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`

	// AdminUserID restricts admin-only commands; 0 leaves them open.
	AdminUserID int64 `mapstructure:"admin_user_id" validate:"gte=0"`
}

// DispatchConfig controls command routing.
type DispatchConfig struct {
	CommandPrefix string `mapstructure:"command_prefix" validate:"required,len=1"`
	MaxHandlers   int    `mapstructure:"max_handlers"   validate:"gte=0"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig locates the message archive. An empty Path disables it.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task on a cron schedule (with seconds field).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the reply texts of the built-in commands.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	HelpHeader    string `mapstructure:"help_header"    validate:"required"`
	Pong          string `mapstructure:"pong"           validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
}

// Prefix returns the command prefix character.
func (d DispatchConfig) Prefix() rune {
	for _, r := range d.CommandPrefix {
		return r
	}
	return '/'
}
