package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/pollbot/internal/model"
)

// Message is an archived message row.
type Message struct {
	ChatID     int64  `db:"chat_id"`
	MessageID  int64  `db:"message_id"`
	UserID     int64  `db:"user_id"`
	ChatTitle  string `db:"chat_title"`
	Content    string `db:"content"`
	Edited     bool   `db:"edited"`
	SentAt     int64  `db:"sent_at"`
	ArchivedAt int64  `db:"archived_at"`
}

// FromModel converts a folded message into its archive row.
func FromModel(m model.Message) Message {
	return Message{
		ChatID:    m.Chat.ID,
		MessageID: m.ID,
		UserID:    m.SenderID(),
		ChatTitle: m.Chat.Title,
		Content:   Describe(m.Content),
		Edited:    m.Edited,
		SentAt:    m.Date.Unix(),
	}
}

// Describe renders message content as archive text.
func Describe(c model.Content) string {
	switch c := c.(type) {
	case model.Text:
		return c.Body
	case model.Service:
		switch {
		case c.User != nil:
			return fmt.Sprintf("[%s] %d", c.Event, c.User.ID)
		case c.Title != "":
			return fmt.Sprintf("[%s] %s", c.Event, c.Title)
		case c.ChatID != 0:
			return fmt.Sprintf("[%s] %d", c.Event, c.ChatID)
		case c.MessageID != 0:
			return fmt.Sprintf("[%s] %d", c.Event, c.MessageID)
		default:
			return fmt.Sprintf("[%s]", c.Event)
		}
	default:
		return ""
	}
}

// Store defines the archive operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessages upserts messages keyed by chat and message ID, so an edit
	// overwrites the archived original. It returns the number of rows written.
	SaveMessages(ctx context.Context, messages []Message) (int, error)

	// GetMessage reads back one archived message. The bool is false when no
	// row exists.
	GetMessage(ctx context.Context, chatID, messageID int64) (Message, bool, error)

	// CountMessages returns the number of archived messages.
	CountMessages(ctx context.Context) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "archive"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const upsertMessage = `
    INSERT INTO messages (chat_id, message_id, user_id, chat_title, content, edited, sent_at, archived_at)
    VALUES (:chat_id, :message_id, :user_id, :chat_title, :content, :edited, :sent_at, :archived_at)
    ON CONFLICT (chat_id, message_id) DO UPDATE SET
        user_id = excluded.user_id,
        chat_title = excluded.chat_title,
        content = excluded.content,
        edited = excluded.edited,
        archived_at = excluded.archived_at;
`

func (s *sqlxStore) SaveMessages(ctx context.Context, messages []Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, upsertMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Unix()
	for i := range messages {
		messages[i].ArchivedAt = now
		if _, err := stmt.ExecContext(ctx, messages[i]); err != nil {
			return 0, fmt.Errorf("failed to archive message (chat %d, message %d): %w",
				messages[i].ChatID, messages[i].MessageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.DebugContext(ctx, "Archived messages", "count", len(messages))
	return len(messages), nil
}

func (s *sqlxStore) GetMessage(ctx context.Context, chatID, messageID int64) (Message, bool, error) {
	var m Message
	err := s.db.GetContext(ctx, &m, `
        SELECT chat_id, message_id, user_id, chat_title, content, edited, sent_at, archived_at
        FROM messages
        WHERE chat_id = ? AND message_id = ?;
    `, chatID, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("failed to get archived message: %w", err)
	}
	return m, true, nil
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM messages;`); err != nil {
		return 0, fmt.Errorf("failed to count archived messages: %w", err)
	}
	return n, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")
	for _, stmt := range []string{"VACUUM;", "PRAGMA optimize;"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}
