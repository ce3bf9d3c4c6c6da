package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultAPIURL         = "https://api.telegram.org"
	DefaultPollTimeout    = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second

	DefaultCommandPrefix = "/"
	DefaultMaxHandlers   = 64

	DefaultLogLevel = "info"
)

var defaultTasks = map[string]TaskConfig{
	"stats_report":     {Enabled: true, Schedule: "0 */5 * * * *"},
	"archive_messages": {Enabled: true, Schedule: "*/30 * * * * *"},
	"sql_maintenance":  {Enabled: true, Schedule: "0 0 4 * * *"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.api_url", DefaultAPIURL)
	v.SetDefault("telegram.poll_timeout", DefaultPollTimeout)
	v.SetDefault("telegram.request_timeout", DefaultRequestTimeout)
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("dispatch.command_prefix", DefaultCommandPrefix)
	v.SetDefault("dispatch.max_handlers", DefaultMaxHandlers)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "")

	for name, task := range defaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("messages.welcome", "👋 Hi! I'm listening. Send /help to see what I can do.")
	v.SetDefault("messages.help_header", "Available commands:")
	v.SetDefault("messages.pong", "pong")
	v.SetDefault("messages.not_authorized", "🚫 You are not authorized to use this command.")
}
