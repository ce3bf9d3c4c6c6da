package handlers

import (
	"log/slog"

	"github.com/edgard/pollbot/internal/config"
)

// HandlerDeps provides dependencies for command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
}
