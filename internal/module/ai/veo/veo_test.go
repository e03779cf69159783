package veo

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/promptreel/server/pkg/resilient"
)

const testAPIKey = "test-key"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newProviderClient(baseURL string, attempts int) *resilient.Client {
	return resilient.New(&resilient.Config{
		BaseURL: baseURL,
		Auth:    resilient.HeaderAuth{Name: APIKeyHeader, Value: testAPIKey},
		Retry:   resilient.RetryPolicy{MaxAttempts: attempts},
		Sleep:   noSleep,
	})
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
