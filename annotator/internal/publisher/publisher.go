package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/obsidianstack/holecheck/annotator/internal/config"
	"github.com/obsidianstack/holecheck/pkg/types"
)

// RunsPath is the server route that accepts run reports.
const RunsPath = "/api/v1/runs"

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 30 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second
)

// ErrRejected marks a response the server will never accept, such as an
// authentication failure.
var ErrRejected = errors.New("publisher: rejected by server")

// Publisher sends run reports to one server.
type Publisher struct {
	url      string
	attempts int
	client   *http.Client
	sleep    func(ctx context.Context, d time.Duration) error // injectable for tests
}

// New builds a Publisher for cfg. The API key is resolved once, here.
func New(cfg config.PublishConfig) *Publisher {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return &Publisher{
		url:      strings.TrimRight(cfg.Endpoint, "/") + RunsPath,
		attempts: attempts,
		client: &http.Client{
			Transport: newAuthRoundTripper(http.DefaultTransport, cfg.Auth),
			Timeout:   sendTimeout,
		},
		sleep: sleepCtx,
	}
}

// Publish delivers run, retrying transient failures.
func (p *Publisher) Publish(ctx context.Context, run *types.Run) error {
	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("publisher: encode run: %w", err)
	}

	bo := newBackoff()
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		lastErr = p.send(ctx, body)
		if lastErr == nil {
			slog.Info("publisher: run delivered", "run", run.ID, "url", p.url, "attempt", attempt)
			return nil
		}
		if errors.Is(lastErr, ErrRejected) || ctx.Err() != nil {
			return lastErr
		}
		if attempt == p.attempts {
			break
		}
		wait := bo.next()
		slog.Warn("publisher: send failed, will retry",
			"run", run.ID, "attempt", attempt, "err", lastErr, "retry_in", wait)
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("publisher: giving up after %d attempts: %w", p.attempts, lastErr)
}

func (p *Publisher) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("publisher: post: %w", err)
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("publisher: server status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(msg))
	}
}

// authRoundTripper injects the API key header into every outgoing request.
type authRoundTripper struct {
	base   http.RoundTripper
	header string
	key    string
}

func newAuthRoundTripper(base http.RoundTripper, auth config.AuthConfig) http.RoundTripper {
	if auth.Mode != "apikey" {
		return base
	}
	header := auth.Header
	if header == "" {
		header = config.DefaultPublishHeader
	}
	return &authRoundTripper{base: base, header: header, key: auth.Key()}
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(t.header, t.key)
	return t.base.RoundTrip(req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// ±25 % jitter.
	d += time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}
