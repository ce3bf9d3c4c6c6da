package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/pollbot/internal/bot"
	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
)

// cycleStats is implemented by *bot.Bot.
type cycleStats interface {
	Stats() bot.Stats
	Offset() int64
}

// NewStatsHandler returns a handler for the stats command.
func NewStatsHandler(deps HandlerDeps) dispatch.Handler {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b dispatch.BotContext, u model.Update) {
	log := h.deps.Logger.With("handler", "stats")
	chatID := u.Message.Chat.ID

	counts := b.Store().Counts()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Chats: %d\nUsers: %d\nMessages: %d", counts.Chats, counts.Users, counts.Messages)

	if cs, ok := b.(cycleStats); ok {
		s := cs.Stats()
		fmt.Fprintf(&sb, "\n\nCycles: %d\nUpdates fetched: %d\nFolded: %d\nSkipped: %d\nDecode errors: %d\nCommands: %d\nFetch failures: %d\nOffset: %d",
			s.Cycles, s.Fetched, s.Folded, s.Skipped, s.DecodeErrors, s.Dispatched, s.FetchFailures, cs.Offset())
	}

	if chat, ok := b.Store().Chat(chatID); ok {
		fmt.Fprintf(&sb, "\n\nThis chat: %d users, %d messages", len(chat.Users), len(chat.Messages))
	}

	if err := b.Send(ctx, chatID, sb.String(), u.Message.ID); err != nil {
		log.ErrorContext(ctx, "Failed to send stats", "error", err, "chat_id", chatID)
	}
}
