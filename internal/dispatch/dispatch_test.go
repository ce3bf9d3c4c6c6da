package dispatch_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/pollbot/internal/dispatch"
	"github.com/edgard/pollbot/internal/model"
	"github.com/edgard/pollbot/internal/store"
)

type fakeBot struct {
	self  model.User
	store *store.Store
}

func (f *fakeBot) Self() model.User    { return f.self }
func (f *fakeBot) Store() *store.Store { return f.store }
func (f *fakeBot) Commands() []string  { return nil }
func (f *fakeBot) Send(context.Context, int64, string, int64) error {
	return nil
}

func textUpdate(id int64, text string) model.Update {
	return model.Update{
		ID:   id,
		Kind: model.UpdateMessage,
		Message: model.Message{
			ID:      id,
			Chat:    model.Chat{ID: 1, Kind: model.ChatGroup, Title: "G"},
			Content: model.Text{Body: text},
		},
	}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text       string
		wantName   string
		wantTarget string
		wantOK     bool
	}{
		{text: "/ping", wantName: "ping", wantOK: true},
		{text: "/ping some args", wantName: "ping", wantOK: true},
		{text: "/ping\nnext line", wantName: "ping", wantOK: true},
		{text: "/ping@pollbot arg", wantName: "ping", wantTarget: "pollbot", wantOK: true},
		{text: "/pingpong", wantName: "pingpong", wantOK: true},
		{text: "//ping", wantName: "/ping", wantOK: true},
		{text: "/Ping", wantName: "Ping", wantOK: true},
		{text: "ping", wantOK: false},
		{text: " /ping", wantOK: false},
		{text: "/", wantOK: false},
		{text: "/ space", wantOK: false},
		{text: "", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			name, target, ok := dispatch.ParseCommand(tc.text, '/')
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantTarget, target)
		})
	}
}

func TestDispatchInvokesMatchingHandlerOnce(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 4)
	b := &fakeBot{self: model.User{ID: 99, FirstName: "Bot", Username: "PollBot"}, store: store.New()}

	var calls atomic.Int32
	var got atomic.Int64
	d.Register("ping", func(_ context.Context, _ dispatch.BotContext, u model.Update) {
		calls.Add(1)
		got.Store(u.ID)
	})

	ctx := context.Background()
	assert.True(t, d.Dispatch(ctx, b, textUpdate(1, "/ping")))
	assert.False(t, d.Dispatch(ctx, b, textUpdate(2, "/pingpong")))
	assert.False(t, d.Dispatch(ctx, b, textUpdate(3, "ping")))
	assert.False(t, d.Dispatch(ctx, b, textUpdate(4, "/ping@otherbot")))
	assert.False(t, d.Dispatch(ctx, b, textUpdate(5, "/PING")))
	d.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), got.Load())

	assert.True(t, d.Dispatch(ctx, b, textUpdate(6, "/ping@pollbot")))
	d.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestDispatchIgnoresNonText(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 0)
	d.Register("ping", func(context.Context, dispatch.BotContext, model.Update) {
		t.Error("handler must not run")
	})

	u := textUpdate(1, "")
	u.Message.Content = model.Service{Event: model.ServiceTitleChanged, Title: "/ping"}
	assert.False(t, d.Dispatch(context.Background(), &fakeBot{}, u))
	d.Wait()
}

func TestRegisterLastWins(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 0)
	var which atomic.Value
	d.Register("cmd", func(context.Context, dispatch.BotContext, model.Update) { which.Store("first") })
	d.Register("cmd", func(context.Context, dispatch.BotContext, model.Update) { which.Store("second") })
	d.Register("another", func(context.Context, dispatch.BotContext, model.Update) {})

	require.True(t, d.Dispatch(context.Background(), &fakeBot{}, textUpdate(1, "/cmd")))
	d.Wait()
	assert.Equal(t, "second", which.Load())
	assert.Equal(t, []string{"another", "cmd"}, d.Commands())
}

func TestMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var trace []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		trace = append(trace, s)
	}
	wrap := func(label string) dispatch.Middleware {
		return func(next dispatch.Handler) dispatch.Handler {
			return func(ctx context.Context, b dispatch.BotContext, u model.Update) {
				record(label)
				next(ctx, b, u)
			}
		}
	}

	d := dispatch.New(nil, '/', 0)
	d.Register("x", func(context.Context, dispatch.BotContext, model.Update) { record("handler") }, wrap("outer"), wrap("inner"))
	d.Dispatch(context.Background(), &fakeBot{}, textUpdate(1, "/x"))
	d.Wait()

	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestDispatchDoesNotWaitForHandler(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 2)
	release := make(chan struct{})
	d.Register("slow", func(context.Context, dispatch.BotContext, model.Update) { <-release })

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), &fakeBot{}, textUpdate(1, "/slow"))
		d.Dispatch(context.Background(), &fakeBot{}, textUpdate(2, "/slow"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a running handler")
	}
	close(release)
	d.Wait()
}

func TestHandlerPanicIsContained(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 0)
	d.Register("boom", func(context.Context, dispatch.BotContext, model.Update) { panic("boom") })

	assert.True(t, d.Dispatch(context.Background(), &fakeBot{}, textUpdate(1, "/boom")))
	assert.NotPanics(t, d.Wait)
}

func TestDispatchDoesNotBlockOnSaturatedPool(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 1)
	release := make(chan struct{})
	var running, peak, finished atomic.Int32
	d.Register("slow", func(context.Context, dispatch.BotContext, model.Update) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		finished.Add(1)
	})

	done := make(chan struct{})
	go func() {
		assert.True(t, d.Dispatch(context.Background(), &fakeBot{}, textUpdate(1, "/slow")))
		assert.True(t, d.Dispatch(context.Background(), &fakeBot{}, textUpdate(2, "/slow")))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("second dispatch blocked while the handler pool was full")
	}
	close(release)
	d.Wait()

	assert.Equal(t, int32(2), finished.Load())
	assert.Equal(t, int32(1), peak.Load())
}

func TestDispatchDropsWaitingHandlerOnCancel(t *testing.T) {
	t.Parallel()

	d := dispatch.New(nil, '/', 1)
	release := make(chan struct{})
	var calls atomic.Int32
	d.Register("slow", func(context.Context, dispatch.BotContext, model.Update) {
		calls.Add(1)
		<-release
	})

	d.Dispatch(context.Background(), &fakeBot{}, textUpdate(1, "/slow"))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, &fakeBot{}, textUpdate(2, "/slow"))
	cancel()
	close(release)
	d.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
