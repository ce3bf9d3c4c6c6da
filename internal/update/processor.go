// Package update turns raw update batches into typed updates, folds them into
// the conversation store and triggers command dispatch.
package update

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
	"github.com/edgard/pollbot/internal/store"
)

// UpdateError is a per-update failure. It never aborts a batch.
type UpdateError struct {
	Index    int
	UpdateID int64
	Err      error
}

func (e *UpdateError) Error() string {
	if e.UpdateID == 0 {
		return fmt.Sprintf("batch entry %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("update %d: %v", e.UpdateID, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Result summarizes one processed batch.
type Result struct {
	// Updates holds the successfully decoded updates in batch order.
	Updates []model.Update
	// Errors holds malformed-update failures. Expected skips are not listed.
	Errors []error

	Fetched    int
	Folded     int
	Skipped    int
	Dispatched int

	// Offset is the resumption offset after this batch.
	Offset int64
}

// Processor decodes and folds update batches.
type Processor struct {
	logger     *slog.Logger
	store      *store.Store
	dispatcher *dispatch.Dispatcher
}

// NewProcessor creates a Processor folding into s. A nil dispatcher disables
// command handling.
func NewProcessor(logger *slog.Logger, s *store.Store, d *dispatch.Dispatcher) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:     logger.With("component", "update_processor"),
		store:      s,
		dispatcher: d,
	}
}

// ProcessBatch decodes every entry of batch in order, folds each decoded
// update into the store and dispatches its command, if any.
//
// Undecodable entries are skipped: unimplemented content is only counted,
// anything else is recorded in Result.Errors. The returned offset is one past
// the highest update ID seen, including skipped entries, and never lower than
// offset.
func (p *Processor) ProcessBatch(ctx context.Context, b dispatch.BotContext, batch []gjson.Result, offset int64) Result {
	res := p.Decode(ctx, batch, offset)
	for _, u := range res.Updates {
		if p.Fold(ctx, b, u) {
			res.Dispatched++
		}
		res.Folded++
	}
	return res
}

// Decode is the decoding half of ProcessBatch. It fills Updates, Errors,
// Skipped and Offset without touching the store.
func (p *Processor) Decode(ctx context.Context, batch []gjson.Result, offset int64) Result {
	res := Result{Fetched: len(batch), Offset: offset}

	for i, raw := range batch {
		u, err := model.DecodeUpdate(raw)
		if raw.Get("update_id").Exists() && u.ID >= res.Offset {
			res.Offset = u.ID + 1
		}
		if err != nil {
			if model.IsExpected(err) {
				res.Skipped++
				p.logger.DebugContext(ctx, "Skipping unsupported update", "update_id", u.ID, "reason", err)
				continue
			}
			res.Errors = append(res.Errors, &UpdateError{Index: i, UpdateID: u.ID, Err: err})
			p.logger.WarnContext(ctx, "Failed to decode update", "index", i, "update_id", u.ID, "error", err)
			continue
		}
		res.Updates = append(res.Updates, u)
	}
	return res
}

// Fold merges u's message into the store and starts the matching command
// handler. It reports whether a handler was started.
func (p *Processor) Fold(ctx context.Context, b dispatch.BotContext, u model.Update) bool {
	fr := p.store.Fold(u.Message)
	p.logger.DebugContext(ctx, "Folded update",
		"update_id", u.ID,
		"kind", u.Kind,
		"chat_id", u.Message.Chat.ID,
		"message_id", u.Message.ID,
		"chat_added", fr.ChatAdded,
		"user_added", fr.UserAdded,
		"outcome", fr.Outcome.String())

	if p.dispatcher == nil {
		return false
	}
	return p.dispatcher.Dispatch(ctx, b, u)
}
