package handlers

import (
	"context"
	"strings"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
)

// NewStartHandler returns a handler for the start command.
func NewStartHandler(deps HandlerDeps) dispatch.Handler {
	return startHandler{deps}.Handle
}

// startHandler processes the start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b dispatch.BotContext, u model.Update) {
	log := h.deps.Logger.With("handler", "start")
	chatID := u.Message.Chat.ID

	log.InfoContext(ctx, "Handling start command", "chat_id", chatID, "user_id", u.Message.SenderID())

	welcome := h.deps.Config.Messages.Welcome
	if username := b.Self().Username; username != "" {
		welcome = strings.ReplaceAll(welcome, "@botname", "@"+username)
	}
	if err := b.Send(ctx, chatID, welcome, 0); err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
	} else {
		log.DebugContext(ctx, "Successfully sent welcome message", "chat_id", chatID)
	}
}
