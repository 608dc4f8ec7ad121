package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rileyhilliard/pimon/internal/logger"
	"github.com/rileyhilliard/pimon/internal/metrics"
)

func init() {
	// Plain output so tests can match rendered text directly
	lipgloss.SetColorProfile(termenv.Ascii)
}

var errBoom = errors.New("boom")

// fakeProvider serves canned results. When gate is set, Summary blocks until
// the gate is closed or the context ends.
type fakeProvider struct {
	mu    sync.Mutex
	calls int

	gate chan struct{}

	summary    *metrics.Summary
	summaryErr error
	sources    metrics.Ranking
	sourcesErr error
	items      metrics.TopItems
	itemsErr   error
	series     metrics.TimeSeries
	seriesErr  error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		summary: &metrics.Summary{Status: "enabled", DNSQueriesToday: 1234, DomainsBeingBlocked: 98765},
		sources: metrics.Ranking{"laptop|192.168.1.10": 40},
		items: metrics.TopItems{
			Queries: metrics.Ranking{"a.com": 5, "b.com": 5, "c.com": 3},
			Blocked: metrics.Ranking{"ads.example": 7},
		},
		series: metrics.TimeSeries{{Timestamp: 600, Count: 10}, {Timestamp: 1200, Count: 20}},
	}
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *fakeProvider) Summary(ctx context.Context) (*metrics.Summary, error) {
	p.mu.Lock()
	p.calls++
	gate := p.gate
	summary, err := p.summary, p.summaryErr
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return summary, err
}

func (p *fakeProvider) TopSources(_ context.Context, _ int) (metrics.Ranking, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sources, p.sourcesErr
}

func (p *fakeProvider) TopItems(_ context.Context, _ int) (metrics.TopItems, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items, p.itemsErr
}

func (p *fakeProvider) QueriesOverTime(_ context.Context) (metrics.TimeSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.series, p.seriesErr
}

// set mutates the provider between fetches.
func (p *fakeProvider) set(fn func(p *fakeProvider)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

// fakeController records writes.
type fakeController struct {
	mu       sync.Mutex
	enabled  int
	disabled []int
	err      error
}

func (c *fakeController) Enable(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled++
	return c.err
}

func (c *fakeController) Disable(_ context.Context, seconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = append(c.disabled, seconds)
	return c.err
}

// fakeClock is a settable clock safe for use from background tasks.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testTarget(name, key string) metrics.Target {
	return metrics.Target{ID: metrics.TargetID(name), Name: name, Endpoint: "http://" + name, Credential: key}
}

func newTestCoordinator(t *testing.T, p metrics.Provider, ctrl metrics.Controller, opts CoordinatorOptions) *Coordinator {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	key := ""
	if ctrl != nil {
		key = "secret"
	}
	c := NewCoordinator(testTarget("home", key), p, ctrl, opts)
	t.Cleanup(c.Close)
	return c
}

// await blocks until c's outstanding fetch completes, failing after a second.
func await(t *testing.T, c *Coordinator) bool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.Await(ctx)
}
