package handlers

import (
	"log/slog"
	"slices"

	"github.com/edgard/pollbot/internal/dispatch"
)

// RegisteredHandler represents a command handler with its description and middleware.
type RegisteredHandler struct {
	Description string
	Handler     dispatch.Handler
	Middleware  []dispatch.Middleware
}

// Registrar accepts command handlers. *bot.Bot and *dispatch.Dispatcher
// satisfy it.
type Registrar interface {
	Register(name string, h dispatch.Handler, mw ...dispatch.Middleware)
}

// RegisterAllCommands returns the built-in commands keyed by name.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["start"] = RegisteredHandler{
		Description: "Show the welcome message",
		Handler:     NewStartHandler(deps),
	}
	handlers["ping"] = RegisteredHandler{
		Description: "Check that the bot is alive",
		Handler:     NewPingHandler(deps),
	}
	handlers["stats"] = RegisteredHandler{
		Description: "Show conversation and polling statistics",
		Handler:     NewStatsHandler(deps),
		Middleware:  []dispatch.Middleware{AdminOnly(deps)},
	}

	descriptions := make(map[string]string, len(handlers)+1)
	for name, h := range handlers {
		descriptions[name] = h.Description
	}
	descriptions["help"] = "List available commands"
	handlers["help"] = RegisteredHandler{
		Description: descriptions["help"],
		Handler:     NewHelpHandler(deps, descriptions),
	}

	return handlers
}

// RegisterHandlers registers every handler with r, in name order. common is
// applied outside each handler's own middleware.
func RegisterHandlers(r Registrar, logger *slog.Logger, handlers map[string]RegisteredHandler, common ...dispatch.Middleware) {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		h := handlers[name]
		mw := append(slices.Clone(common), h.Middleware...)
		r.Register(name, h.Handler, mw...)
		logger.Debug("Registered command handler", "command", name)
	}
	logger.Info("Command handlers registered", "count", len(names))
}
