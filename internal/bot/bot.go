// Package bot is the composition root of the poll bot: it owns the resumption
// offset, drives the fetch/fold/dispatch cycle and the scheduler, and is the
// context command handlers receive.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
	"github.com/edgard/pollbot/internal/store"
	"github.com/edgard/pollbot/internal/telegram"
	"github.com/edgard/pollbot/internal/update"
)

// Transport fetches raw payloads from the platform.
type Transport interface {
	FetchUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]gjson.Result, error)
	FetchSelf(ctx context.Context) (gjson.Result, error)
}

// Sender delivers replies.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, replyTo int64) error
}

// Deps holds the components a Bot is assembled from. Transport is required;
// Store and Dispatcher are created when nil and Sender is optional.
type Deps struct {
	Logger      *slog.Logger
	Transport   Transport
	Sender      Sender
	Store       *store.Store
	Dispatcher  *dispatch.Dispatcher
	PollTimeout time.Duration
}

// CycleSummary is the observable result of one polling cycle.
type CycleSummary struct {
	ID         string
	Fetched    int
	Folded     int
	Skipped    int
	Errors     []error
	Dispatched int
	Offset     int64

	// FetchErr is the transport failure that emptied this cycle's batch.
	FetchErr error
}

// Stats are cumulative totals over every cycle since the Bot was created.
type Stats struct {
	Cycles        int64
	Fetched       int64
	Folded        int64
	Skipped       int64
	DecodeErrors  int64
	Dispatched    int64
	FetchFailures int64
}

// ErrNoSender is returned by Send when the Bot was built without a Sender.
var ErrNoSender = errors.New("bot has no sender")

// Bot represents the poll bot and manages its components' lifecycle.
type Bot struct {
	logger      *slog.Logger
	transport   Transport
	sender      Sender
	store       *store.Store
	dispatcher  *dispatch.Dispatcher
	processor   *update.Processor
	scheduler   *Scheduler
	pollTimeout time.Duration

	offset atomic.Int64

	mu      sync.RWMutex
	self    model.User
	updates []model.Update

	cycles        atomic.Int64
	fetched       atomic.Int64
	folded        atomic.Int64
	skipped       atomic.Int64
	decodeErrors  atomic.Int64
	dispatched    atomic.Int64
	fetchFailures atomic.Int64
}

// New creates a Bot from deps. The offset starts at zero and is never
// persisted, so a restarted Bot may be handed updates it already saw.
func New(deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := deps.Store
	if s == nil {
		s = store.New()
	}
	d := deps.Dispatcher
	if d == nil {
		d = dispatch.New(logger, '/', 0)
	}
	return &Bot{
		logger:      logger.With("component", "bot"),
		transport:   deps.Transport,
		sender:      deps.Sender,
		store:       s,
		dispatcher:  d,
		processor:   update.NewProcessor(logger, s, d),
		pollTimeout: deps.PollTimeout,
	}
}

// Register binds a command handler. The last registration of a name wins.
func (b *Bot) Register(name string, h dispatch.Handler, mw ...dispatch.Middleware) {
	b.dispatcher.Register(name, h, mw...)
}

// UseScheduler makes Run start and stop s alongside the polling loop. It must
// be called before Run.
func (b *Bot) UseScheduler(s *Scheduler) {
	b.scheduler = s
}

// Start fetches the bot's own identity. Its failure is fatal to the caller.
func (b *Bot) Start(ctx context.Context) error {
	raw, err := b.transport.FetchSelf(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch bot identity: %w", err)
	}
	self, err := model.DecodeUser(raw)
	if err != nil {
		return fmt.Errorf("failed to decode bot identity: %w", err)
	}

	b.mu.Lock()
	b.self = self
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "Bot identity fetched", "bot_id", self.ID, "username", self.Username)
	return nil
}

// Cycle runs one Fetching, Folding and Dispatching pass and returns its
// summary. A fetch failure yields an empty batch; the next cycle simply
// tries again, with no backoff. Handlers started here are not awaited.
func (b *Bot) Cycle(ctx context.Context) CycleSummary {
	sum := CycleSummary{ID: uuid.NewString()}
	log := b.logger.With("cycle_id", sum.ID)
	offset := b.Offset()

	batch, err := b.transport.FetchUpdates(ctx, offset, b.pollTimeout)
	if err != nil {
		batch = nil
		switch {
		case errors.Is(err, telegram.ErrTimeout):
			log.DebugContext(ctx, "Long poll timed out", "offset", offset)
		case ctx.Err() != nil:
			log.DebugContext(ctx, "Fetch cancelled", "offset", offset)
		default:
			sum.FetchErr = err
			b.fetchFailures.Add(1)
			log.WarnContext(ctx, "Failed to fetch updates", "offset", offset, "error", err)
		}
	}

	res := b.processor.Decode(ctx, batch, offset)
	b.setUpdates(res.Updates)
	for _, u := range res.Updates {
		if b.processor.Fold(ctx, b, u) {
			res.Dispatched++
		}
		res.Folded++
	}
	b.offset.Store(res.Offset)
	b.setUpdates(nil)

	sum.Fetched = res.Fetched
	sum.Folded = res.Folded
	sum.Skipped = res.Skipped
	sum.Errors = res.Errors
	sum.Dispatched = res.Dispatched
	sum.Offset = res.Offset
	b.record(sum)

	attrs := []any{
		"fetched", sum.Fetched,
		"folded", sum.Folded,
		"skipped", sum.Skipped,
		"decode_errors", len(sum.Errors),
		"dispatched", sum.Dispatched,
		"offset", sum.Offset,
	}
	if sum.Fetched > 0 {
		log.InfoContext(ctx, "Cycle completed", attrs...)
	} else {
		log.DebugContext(ctx, "Cycle completed", attrs...)
	}
	return sum
}

// Run fetches the bot identity, then runs cycles and the scheduler until ctx
// is cancelled or a component fails. In-flight handlers are awaited before it
// returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot...")

	if err := b.Start(ctx); err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting polling loop", "poll_timeout", b.pollTimeout)
		for gCtx.Err() == nil {
			b.Cycle(gCtx)
		}
		b.logger.Info("Polling loop stopped.")
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot running. Waiting for shutdown signal or error...")
	err := g.Wait()

	b.logger.Info("Waiting for in-flight command handlers...")
	b.dispatcher.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot stopped gracefully.")
	return nil
}

// Self returns the identity fetched by Start.
func (b *Bot) Self() model.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.self
}

// Store returns the conversation store.
func (b *Bot) Store() *store.Store {
	return b.store
}

// Commands returns the registered command names.
func (b *Bot) Commands() []string {
	return b.dispatcher.Commands()
}

// Send delivers a reply through the configured Sender.
func (b *Bot) Send(ctx context.Context, chatID int64, text string, replyTo int64) error {
	if b.sender == nil {
		return ErrNoSender
	}
	return b.sender.Send(ctx, chatID, text, replyTo)
}

// FindUpdate looks up an update of the cycle currently being folded. The
// buffer is cleared at the end of every cycle.
func (b *Bot) FindUpdate(id int64) (model.Update, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := slices.IndexFunc(b.updates, func(u model.Update) bool { return u.ID == id })
	if i < 0 {
		return model.Update{}, false
	}
	return b.updates[i], true
}

// Offset returns the next update ID to request.
func (b *Bot) Offset() int64 {
	return b.offset.Load()
}

// Stats returns the cumulative cycle counters.
func (b *Bot) Stats() Stats {
	return Stats{
		Cycles:        b.cycles.Load(),
		Fetched:       b.fetched.Load(),
		Folded:        b.folded.Load(),
		Skipped:       b.skipped.Load(),
		DecodeErrors:  b.decodeErrors.Load(),
		Dispatched:    b.dispatched.Load(),
		FetchFailures: b.fetchFailures.Load(),
	}
}

func (b *Bot) setUpdates(updates []model.Update) {
	b.mu.Lock()
	b.updates = updates
	b.mu.Unlock()
}

func (b *Bot) record(sum CycleSummary) {
	b.cycles.Add(1)
	b.fetched.Add(int64(sum.Fetched))
	b.folded.Add(int64(sum.Folded))
	b.skipped.Add(int64(sum.Skipped))
	b.decodeErrors.Add(int64(len(sum.Errors)))
	b.dispatched.Add(int64(sum.Dispatched))
}
