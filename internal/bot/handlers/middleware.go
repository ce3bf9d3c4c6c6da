// Package handlers contains the built-in command handlers, their
// registration logic and middleware.
package handlers

import (
	"context"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
)

// AdminOnly creates a middleware that checks if the message sender is the configured admin user.
// If not, it replies with the "not authorized" message and stops processing.
// Without a configured admin every sender is allowed.
func AdminOnly(deps HandlerDeps) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, b dispatch.BotContext, u model.Update) {
			adminID := deps.Config.Telegram.AdminUserID
			userID := u.Message.SenderID()

			if adminID != 0 && userID != adminID {
				chatID := u.Message.Chat.ID
				log := deps.Logger.With("middleware", "AdminOnly")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)

				if err := b.Send(ctx, chatID, deps.Config.Messages.NotAuthorized, u.Message.ID); err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
				}
				return
			}

			next(ctx, b, u)
		}
	}
}
