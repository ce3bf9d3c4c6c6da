package handlers

import (
	"context"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
)

// NewPingHandler returns a handler that replies to the triggering message.
func NewPingHandler(deps HandlerDeps) dispatch.Handler {
	log := deps.Logger.With("handler", "ping")

	return func(ctx context.Context, b dispatch.BotContext, u model.Update) {
		chatID := u.Message.Chat.ID
		if err := b.Send(ctx, chatID, deps.Config.Messages.Pong, u.Message.ID); err != nil {
			log.ErrorContext(ctx, "Failed to send pong", "error", err, "chat_id", chatID)
		}
	}
}
