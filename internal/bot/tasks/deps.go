// Package tasks implements the bot's scheduled jobs and the registry the
// scheduler looks them up in.
package tasks

import (
	"log/slog"

	"github.com/edgard/pollbot/internal/archive"
	"github.com/edgard/pollbot/internal/bot"
	"github.com/edgard/pollbot/internal/config"
	"github.com/edgard/pollbot/internal/store"
)

// StatsSource exposes the live counters the stats report logs.
type StatsSource interface {
	Stats() bot.Stats
	Offset() int64
	Store() *store.Store
}

// TaskDeps contains all dependencies required by scheduled tasks. Archive is
// nil when the archive is disabled.
type TaskDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Bot     StatsSource
	Archive archive.Store
}
