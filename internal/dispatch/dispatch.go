// Package dispatch routes text commands to registered handlers and runs them
// on a bounded pool, independently of the polling cycle.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/edgard/pollbot/internal/model"
	"github.com/edgard/pollbot/internal/store"
)

// BotContext is the shared bot state handed to every handler. The store is
// read-only from a handler's point of view: anything a handler sends comes
// back through the polling cycle like any other message.
type BotContext interface {
	Self() model.User
	Store() *store.Store
	Commands() []string
	Send(ctx context.Context, chatID int64, text string, replyTo int64) error
}

// Handler runs a command. It has no result; failures are the handler's to log.
type Handler func(ctx context.Context, b BotContext, u model.Update)

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Dispatcher is the command table plus the pool command handlers run on.
type Dispatcher struct {
	logger *slog.Logger
	prefix rune

	mu       sync.RWMutex
	handlers map[string]Handler

	pool  errgroup.Group
	slots *semaphore.Weighted
}

// New creates a Dispatcher. Commands start with prefix; at most maxHandlers
// run at once. Handlers beyond the bound are started anyway and wait for a
// free slot on their own, so Dispatch never blocks. A maxHandlers of zero or
// less means no bound.
func New(logger *slog.Logger, prefix rune, maxHandlers int) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		prefix:   prefix,
		handlers: make(map[string]Handler),
	}
	if maxHandlers > 0 {
		d.slots = semaphore.NewWeighted(int64(maxHandlers))
	}
	return d
}

// Register binds name (case-sensitive, without prefix) to h, wrapped in mw
// with the first middleware outermost. A later registration of the same name
// replaces the earlier one.
func (d *Dispatcher) Register(name string, h Handler, mw ...Middleware) {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[name]; exists {
		d.logger.Debug("Replacing command handler", "command", name)
	}
	d.handlers[name] = h
}

// Lookup returns the handler registered under name.
func (d *Dispatcher) Lookup(name string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[name]
	return h, ok
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch starts the handler matching u's command, if any, and reports
// whether one was started. It does not wait for the handler to finish.
func (d *Dispatcher) Dispatch(ctx context.Context, b BotContext, u model.Update) bool {
	text, ok := u.Message.Text()
	if !ok {
		return false
	}
	name, target, ok := ParseCommand(text, d.prefix)
	if !ok {
		return false
	}
	if target != "" && !strings.EqualFold(target, b.Self().Username) {
		return false
	}
	h, ok := d.Lookup(name)
	if !ok {
		return false
	}

	d.pool.Go(func() error {
		if d.slots != nil {
			if err := d.slots.Acquire(ctx, 1); err != nil {
				d.logger.WarnContext(ctx, "Command dropped while waiting for a handler slot",
					"command", name, "update_id", u.ID, "error", err)
				return nil
			}
			defer d.slots.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				d.logger.ErrorContext(ctx, "Command handler panicked",
					"command", name, "update_id", u.ID, "panic", fmt.Sprint(r))
			}
		}()
		h(ctx, b, u)
		return nil
	})
	return true
}

// Wait blocks until every started handler has returned.
func (d *Dispatcher) Wait() {
	_ = d.pool.Wait()
}

// ParseCommand extracts the command name from text. The text must begin with
// prefix; the name is the first whitespace-delimited token with that single
// prefix character removed. A "name@bot" token yields the bot username as
// target.
func ParseCommand(text string, prefix rune) (name, target string, ok bool) {
	first, size := utf8.DecodeRuneInString(text)
	if size == 0 || first != prefix {
		return "", "", false
	}
	token := text[size:]
	if i := strings.IndexFunc(token, unicode.IsSpace); i >= 0 {
		token = token[:i]
	}
	name, target, _ = strings.Cut(token, "@")
	if name == "" {
		return "", "", false
	}
	return name, target, true
}
