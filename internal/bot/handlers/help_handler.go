package handlers

import (
	"context"
	"strings"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
)

// NewHelpHandler returns a handler for the help command. It lists every
// command registered on the bot at the time it runs, described from
// descriptions where known.
func NewHelpHandler(deps HandlerDeps, descriptions map[string]string) dispatch.Handler {
	return helpHandler{deps: deps, descriptions: descriptions}.Handle
}

// helpHandler processes the help command using injected dependencies.
type helpHandler struct {
	deps         HandlerDeps
	descriptions map[string]string
}

func (h helpHandler) Handle(ctx context.Context, b dispatch.BotContext, u model.Update) {
	log := h.deps.Logger.With("handler", "help")
	chatID := u.Message.Chat.ID

	log.InfoContext(ctx, "Handling help command", "chat_id", chatID, "user_id", u.Message.SenderID())

	prefix := h.deps.Config.Dispatch.CommandPrefix
	var sb strings.Builder
	sb.WriteString(h.deps.Config.Messages.HelpHeader)
	for _, name := range b.Commands() {
		sb.WriteString("\n")
		sb.WriteString(prefix + name)
		if desc := h.descriptions[name]; desc != "" {
			sb.WriteString(" - " + desc)
		}
	}

	if err := b.Send(ctx, chatID, sb.String(), 0); err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", chatID)
	} else {
		log.DebugContext(ctx, "Successfully sent help message", "chat_id", chatID)
	}
}
