package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/pollbot/internal/bot"
	"github.com/edgard/pollbot/internal/config"
	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
	"github.com/edgard/pollbot/internal/store"
)

type sent struct {
	chatID  int64
	text    string
	replyTo int64
}

type fakeBot struct {
	store    *store.Store
	commands []string

	mu   sync.Mutex
	sent []sent
}

func (f *fakeBot) Self() model.User    { return model.User{ID: 1, FirstName: "Bot", Username: "pollbot"} }
func (f *fakeBot) Store() *store.Store { return f.store }
func (f *fakeBot) Commands() []string  { return f.commands }
func (f *fakeBot) Send(_ context.Context, chatID int64, text string, replyTo int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{chatID: chatID, text: text, replyTo: replyTo})
	return nil
}

type statsBot struct {
	*fakeBot
}

func (statsBot) Stats() bot.Stats { return bot.Stats{Cycles: 9, Fetched: 4} }
func (statsBot) Offset() int64    { return 12 }

func testDeps(adminID int64) HandlerDeps {
	return HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Telegram: config.TelegramConfig{AdminUserID: adminID},
			Dispatch: config.DispatchConfig{CommandPrefix: "/"},
			Messages: config.MessagesConfig{
				Welcome:       "Hello from @botname",
				HelpHeader:    "Commands:",
				Pong:          "pong",
				NotAuthorized: "nope",
			},
		},
	}
}

func commandUpdate(chatID, userID int64, text string) model.Update {
	return model.Update{
		ID:   100,
		Kind: model.UpdateMessage,
		Message: model.Message{
			ID:      5,
			Chat:    model.Chat{ID: chatID, Kind: model.ChatGroup, Title: "G"},
			From:    &model.User{ID: userID, FirstName: "U"},
			Content: model.Text{Body: text},
		},
	}
}

func TestStartHandler(t *testing.T) {
	t.Parallel()

	b := &fakeBot{store: store.New()}
	NewStartHandler(testDeps(0))(context.Background(), b, commandUpdate(3, 4, "/start"))

	require.Len(t, b.sent, 1)
	assert.Equal(t, sent{chatID: 3, text: "Hello from @pollbot"}, b.sent[0])
}

func TestPingHandlerRepliesToMessage(t *testing.T) {
	t.Parallel()

	b := &fakeBot{store: store.New()}
	NewPingHandler(testDeps(0))(context.Background(), b, commandUpdate(3, 4, "/ping"))

	require.Len(t, b.sent, 1)
	assert.Equal(t, sent{chatID: 3, text: "pong", replyTo: 5}, b.sent[0])
}

func TestHelpHandlerListsCommands(t *testing.T) {
	t.Parallel()

	b := &fakeBot{store: store.New(), commands: []string{"custom", "help", "ping"}}
	h := NewHelpHandler(testDeps(0), map[string]string{"ping": "Check", "help": "List"})
	h(context.Background(), b, commandUpdate(3, 4, "/help"))

	require.Len(t, b.sent, 1)
	assert.Equal(t, "Commands:\n/custom\n/help - List\n/ping - Check", b.sent[0].text)
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()

	s := store.New()
	u := commandUpdate(3, 4, "/stats")
	s.Fold(u.Message)

	plain := &fakeBot{store: s}
	NewStatsHandler(testDeps(0))(context.Background(), plain, u)
	require.Len(t, plain.sent, 1)
	assert.Contains(t, plain.sent[0].text, "Chats: 1\nUsers: 1\nMessages: 1")
	assert.NotContains(t, plain.sent[0].text, "Cycles")
	assert.Contains(t, plain.sent[0].text, "This chat: 1 users, 1 messages")

	withStats := statsBot{&fakeBot{store: s}}
	NewStatsHandler(testDeps(0))(context.Background(), withStats, u)
	require.Len(t, withStats.sent, 1)
	assert.Contains(t, withStats.sent[0].text, "Cycles: 9")
	assert.Contains(t, withStats.sent[0].text, "Offset: 12")
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		adminID   int64
		userID    int64
		wantCalls int
		wantSent  []sent
	}{
		{name: "no admin configured", adminID: 0, userID: 4, wantCalls: 1},
		{name: "admin", adminID: 4, userID: 4, wantCalls: 1},
		{name: "other user", adminID: 4, userID: 8, wantSent: []sent{{chatID: 3, text: "nope", replyTo: 5}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			next := func(context.Context, dispatch.BotContext, model.Update) { calls++ }
			b := &fakeBot{store: store.New()}

			AdminOnly(testDeps(tc.adminID))(next)(context.Background(), b, commandUpdate(3, tc.userID, "/stats"))

			assert.Equal(t, tc.wantCalls, calls)
			assert.Equal(t, tc.wantSent, b.sent)
		})
	}
}

func TestAdminOnlyRejectsAnonymousSender(t *testing.T) {
	t.Parallel()

	u := commandUpdate(3, 4, "/stats")
	u.Message.From = nil
	called := false
	b := &fakeBot{store: store.New()}

	AdminOnly(testDeps(4))(func(context.Context, dispatch.BotContext, model.Update) { called = true })(context.Background(), b, u)

	assert.False(t, called)
	assert.Len(t, b.sent, 1)
}

type recordingRegistrar struct {
	names []string
	mw    map[string]int
}

func (r *recordingRegistrar) Register(name string, _ dispatch.Handler, mw ...dispatch.Middleware) {
	r.names = append(r.names, name)
	r.mw[name] = len(mw)
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	deps := testDeps(0)
	all := RegisterAllCommands(deps)
	assert.Len(t, all, 4)

	passThrough := func(next dispatch.Handler) dispatch.Handler { return next }
	r := &recordingRegistrar{mw: make(map[string]int)}
	RegisterHandlers(r, deps.Logger, all, passThrough)

	assert.Equal(t, []string{"help", "ping", "start", "stats"}, r.names)
	assert.Equal(t, 1, r.mw["ping"])
	assert.Equal(t, 2, r.mw["stats"])
}

func TestHandlersThroughDispatcher(t *testing.T) {
	t.Parallel()

	deps := testDeps(0)
	d := dispatch.New(deps.Logger, '/', 4)
	RegisterHandlers(d, deps.Logger, RegisterAllCommands(deps))

	b := &fakeBot{store: store.New()}
	require.True(t, d.Dispatch(context.Background(), b, commandUpdate(3, 4, "/ping@PollBot")))
	assert.False(t, d.Dispatch(context.Background(), b, commandUpdate(3, 4, "/ping@otherbot")))
	d.Wait()

	require.Len(t, b.sent, 1)
	assert.Equal(t, "pong", b.sent[0].text)
}
