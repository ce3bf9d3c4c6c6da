package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgard/pollbot/internal/archive"
)

type messageKey struct {
	chatID    int64
	messageID int64
}

// newArchiveMessagesTask upserts every message that is new or changed since
// the previous run into the archive. What was archived is tracked in memory
// only, so the first run after a restart rewrites everything in the store.
func newArchiveMessagesTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "archive_messages")

	var (
		mu       sync.Mutex
		archived = make(map[messageKey]archive.Message)
	)

	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()

		startTime := time.Now()

		var pending []archive.Message
		for _, chat := range deps.Bot.Store().Chats() {
			for _, msg := range chat.Messages {
				row := archive.FromModel(msg)
				key := messageKey{chatID: row.ChatID, messageID: row.MessageID}
				if prev, ok := archived[key]; ok && prev == row {
					continue
				}
				pending = append(pending, row)
			}
		}

		if len(pending) == 0 {
			log.DebugContext(ctx, "No messages to archive")
			return nil
		}

		// SaveMessages stamps ArchivedAt, so compare against unstamped rows.
		rows := make([]archive.Message, len(pending))
		copy(rows, pending)

		n, err := deps.Archive.SaveMessages(ctx, rows)
		if err != nil {
			return fmt.Errorf("failed to archive messages: %w", err)
		}
		for _, row := range pending {
			archived[messageKey{chatID: row.ChatID, messageID: row.MessageID}] = row
		}

		log.InfoContext(ctx, "Archived messages", "count", n, "duration", time.Since(startTime))
		return nil
	}
}
