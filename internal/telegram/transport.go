// Package telegram talks to the Bot API: Transport performs the raw
// getUpdates/getMe exchanges the update pipeline decodes, Sender delivers
// replies.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// ErrTimeout means a long poll ended client-side without a response. Callers
// treat it as an empty batch.
var ErrTimeout = errors.New("long poll timed out")

// TransportError is a failed request or a non-success API response.
type TransportError struct {
	Method string
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram %s: %s", e.Method, e.Reason)
}

// Transport performs single request/response exchanges with the Bot API and
// returns the raw result payload.
type Transport struct {
	client *resty.Client
	token  string
	slack  time.Duration
	logger *slog.Logger
}

// NewTransport creates a Transport for token against apiURL. Each request may
// take up to its server-side long-poll timeout plus slack before it is
// abandoned.
func NewTransport(token, apiURL string, slack time.Duration, logger *slog.Logger) (*Transport, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		client: resty.New().SetBaseURL(apiURL),
		token:  token,
		slack:  slack,
		logger: logger.With("component", "telegram_transport"),
	}, nil
}

// FetchUpdates long-polls for updates starting at offset. The returned
// records are the raw entries of the result array.
func (t *Transport) FetchUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]gjson.Result, error) {
	params := map[string]string{
		"offset":  strconv.FormatInt(offset, 10),
		"timeout": strconv.Itoa(int(timeout / time.Second)),
	}
	result, err := t.call(ctx, "getUpdates", params, timeout+t.slack)
	if err != nil {
		return nil, err
	}
	if !result.IsArray() {
		return nil, &TransportError{Method: "getUpdates", Reason: "result is not an array"}
	}
	return result.Array(), nil
}

// FetchSelf returns the raw user record of the bot itself.
func (t *Transport) FetchSelf(ctx context.Context) (gjson.Result, error) {
	return t.call(ctx, "getMe", nil, t.slack)
}

func (t *Transport) call(ctx context.Context, method string, params map[string]string, limit time.Duration) (gjson.Result, error) {
	reqCtx := ctx
	if limit > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	resp, err := t.client.R().
		SetContext(reqCtx).
		SetQueryParams(params).
		Get("/bot" + t.token + "/" + method)
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, ctx.Err()
		}
		if isTimeout(err) {
			return gjson.Result{}, ErrTimeout
		}
		return gjson.Result{}, &TransportError{Method: method, Reason: redact(err, t.token)}
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &TransportError{Method: method, Reason: "request returned " + resp.Status()}
	}
	envelope := gjson.ParseBytes(body)
	if !envelope.Get("ok").Bool() {
		reason := envelope.Get("description").String()
		if reason == "" {
			reason = "request returned " + resp.Status()
		}
		return gjson.Result{}, &TransportError{Method: method, Reason: reason}
	}

	t.logger.DebugContext(ctx, "Telegram request completed", "method", method, "status", resp.StatusCode(), "bytes", len(body))
	return envelope.Get("result"), nil
}

// redact renders a request failure without the request URL, which carries the
// bot token.
func redact(err error, token string) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	reason := err.Error()
	if token != "" {
		reason = strings.ReplaceAll(reason, token, "<redacted>")
	}
	return reason
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
