package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender delivers outbound messages through the go-telegram/bot client. It
// never polls; updates are fetched by Transport.
type Sender struct {
	bot    *tgbot.Bot
	token  string
	logger *slog.Logger
}

// NewSender creates a Sender for token against apiURL.
func NewSender(token, apiURL string, logger *slog.Logger) (*Sender, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_sender")

	b, err := tgbot.New(token, tgbot.WithSkipGetMe(), tgbot.WithServerURL(apiURL))
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Sender{bot: b, token: token, logger: log}, nil
}

// Send posts text to chatID, as a reply to message replyTo when it is non-zero.
func (s *Sender) Send(ctx context.Context, chatID int64, text string, replyTo int64) error {
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if replyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: int(replyTo)}
	}

	msg, err := s.bot.SendMessage(ctx, params)
	if err != nil {
		return &TransportError{Method: "sendMessage", Reason: redact(err, s.token)}
	}
	s.logger.DebugContext(ctx, "Message sent", "chat_id", chatID, "message_id", msg.ID)
	return nil
}
