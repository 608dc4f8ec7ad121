package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/rileyhilliard/pimon/internal/logger"
	"github.com/rileyhilliard/pimon/internal/metrics"
)

// Coordinator defaults.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultPollTimeout  = 10 * time.Millisecond

	// NoWait makes PollCompletion return immediately when no result is ready.
	NoWait time.Duration = -1
)

// SnapshotStore persists completed snapshots. Implemented by store.Store.
type SnapshotStore interface {
	PutSnapshot(targetID string, snap metrics.Snapshot, fetchedAt time.Time) error
}

// CoordinatorOptions tunes a Coordinator. Zero values select defaults.
type CoordinatorOptions struct {
	// TopLimit is passed to the ranking sub-queries. 0 lets the provider decide.
	TopLimit int

	// FetchTimeout bounds one background fetch.
	FetchTimeout time.Duration

	// PollTimeout is the longest PollCompletion waits. Use NoWait for a
	// fully non-blocking check.
	PollTimeout time.Duration

	// Store, when set, receives every completed snapshot from the background
	// task.
	Store SnapshotStore

	Logger logger.Logger

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// fetch is one outstanding background task.
type fetch struct {
	startedAt time.Time
	result    chan fetchResult // buffered, receives exactly one value
	group     *errgroup.Group
	cancel    context.CancelFunc
}

// fetchResult is what a background task delivers: the snapshot to display,
// and the fields that this fetch actually returned.
type fetchResult struct {
	merged metrics.Snapshot
	fresh  metrics.Snapshot
}

// Coordinator owns the fetch lifecycle and latest snapshot of one target.
// At most one fetch is in flight at a time.
//
// All methods except the background task itself are meant to be called from
// a single control goroutine; the snapshot is only ever touched there.
type Coordinator struct {
	target     metrics.Target
	provider   metrics.Provider
	controller metrics.Controller

	topLimit     int
	fetchTimeout time.Duration
	pollTimeout  time.Duration
	store        SnapshotStore
	log          logger.Logger
	now          func() time.Time

	snapshot   metrics.Snapshot
	lastFetch  metrics.Snapshot
	lastUpdate time.Time
	cachedAt   time.Time
	inFlight   *fetch
	spawned    int

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewCoordinator creates a coordinator for target. controller may be nil for
// read-only targets.
func NewCoordinator(target metrics.Target, provider metrics.Provider, controller metrics.Controller, opts CoordinatorOptions) *Coordinator {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.PollTimeout == 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		target:       target,
		provider:     provider,
		controller:   controller,
		topLimit:     opts.TopLimit,
		fetchTimeout: opts.FetchTimeout,
		pollTimeout:  opts.PollTimeout,
		store:        opts.Store,
		log:          opts.Logger,
		now:          opts.Clock,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Target returns the monitored target.
func (c *Coordinator) Target() metrics.Target {
	return c.target
}

// Controller returns the write capability, or nil for read-only targets.
func (c *Coordinator) Controller() metrics.Controller {
	return c.controller
}

// Snapshot returns the last completed snapshot. Before the first completion
// it is the seeded snapshot, or one with every field absent.
func (c *Coordinator) Snapshot() metrics.Snapshot {
	return c.snapshot
}

// LastFetch returns only what the last completed fetch returned, without
// fields carried over from earlier snapshots. All fields are absent before
// the first completion.
func (c *Coordinator) LastFetch() metrics.Snapshot {
	return c.lastFetch
}

// LastUpdate returns when the last fetch completed. Zero means never.
func (c *Coordinator) LastUpdate() time.Time {
	return c.lastUpdate
}

// CachedAt returns the fetch time of the seeded snapshot, if any.
func (c *Coordinator) CachedAt() time.Time {
	return c.cachedAt
}

// InFlight reports whether a background fetch is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.inFlight != nil
}

// StartedAt returns when the outstanding fetch started. Zero when idle.
func (c *Coordinator) StartedAt() time.Time {
	if c.inFlight == nil {
		return time.Time{}
	}
	return c.inFlight.startedAt
}

// Spawned returns how many background fetches have been started.
func (c *Coordinator) Spawned() int {
	return c.spawned
}

// IsStale reports whether more than interval has passed since the last
// completed fetch. A coordinator that never completed is always stale.
func (c *Coordinator) IsStale(now time.Time, interval time.Duration) bool {
	if c.lastUpdate.IsZero() {
		return true
	}
	return now.Sub(c.lastUpdate) > interval
}

// Seed installs a cached snapshot for display. It does not count as an
// update, so the coordinator stays stale until its first real fetch.
func (c *Coordinator) Seed(snap metrics.Snapshot, fetchedAt time.Time) {
	c.snapshot = snap
	c.cachedAt = fetchedAt
}

// RequestRefresh starts a background fetch unless one is already outstanding.
// It never blocks.
func (c *Coordinator) RequestRefresh() {
	if c.inFlight != nil || c.closed {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
	f := &fetch{
		startedAt: c.now(),
		result:    make(chan fetchResult, 1),
		group:     new(errgroup.Group),
		cancel:    cancel,
	}
	prev := c.snapshot
	c.inFlight = f
	c.spawned++

	c.log.Debug("%s: fetch started", c.target.ID)
	f.group.Go(func() error {
		fresh := c.fetchAll(ctx)
		res := fetchResult{merged: metrics.Merge(prev, fresh), fresh: fresh}
		// A fetch that returned nothing must not refresh the cache timestamp.
		if !fresh.IsEmpty() {
			c.persist(res.merged)
		}
		f.result <- res
		return nil
	})
}

// PollCompletion checks for a finished fetch, waiting at most the poll
// timeout. It returns true when a new snapshot was installed.
func (c *Coordinator) PollCompletion() bool {
	f := c.inFlight
	if f == nil {
		return false
	}

	if c.pollTimeout < 0 {
		select {
		case res := <-f.result:
			c.complete(f, res)
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(c.pollTimeout)
	defer timer.Stop()
	select {
	case res := <-f.result:
		c.complete(f, res)
		return true
	case <-timer.C:
		return false
	}
}

// Await blocks until the outstanding fetch completes or ctx is done. It
// returns true when a new snapshot was installed.
func (c *Coordinator) Await(ctx context.Context) bool {
	f := c.inFlight
	if f == nil {
		return false
	}
	select {
	case res := <-f.result:
		c.complete(f, res)
		return true
	case <-ctx.Done():
		return false
	}
}

// Close cancels any outstanding fetch and waits for its task to exit. The
// coordinator refuses new fetches afterwards.
func (c *Coordinator) Close() {
	c.closed = true
	c.cancel()
	if f := c.inFlight; f != nil {
		_ = f.group.Wait()
		f.cancel()
		c.inFlight = nil
	}
}

// complete installs the result and joins the finished task.
func (c *Coordinator) complete(f *fetch, res fetchResult) {
	_ = f.group.Wait()
	f.cancel()
	c.inFlight = nil
	c.snapshot = res.merged
	c.lastFetch = res.fresh
	c.lastUpdate = c.now()
	c.log.Debug("%s: fetch completed in %s", c.target.ID, c.lastUpdate.Sub(f.startedAt))
}

// fetchAll runs every sub-query concurrently. Failed sub-queries leave their
// field absent; they are logged once as a group and never returned.
func (c *Coordinator) fetchAll(ctx context.Context) metrics.Snapshot {
	var (
		snap metrics.Snapshot
		mu   sync.Mutex
		errs *multierror.Error
		g    errgroup.Group
	)
	record := func(err error) {
		mu.Lock()
		errs = multierror.Append(errs, err)
		mu.Unlock()
	}

	g.Go(func() error {
		summary, err := c.provider.Summary(ctx)
		if err != nil {
			record(err)
			return nil
		}
		snap.Summary = summary
		return nil
	})
	g.Go(func() error {
		sources, err := c.provider.TopSources(ctx, c.topLimit)
		if err != nil {
			record(err)
			return nil
		}
		snap.TopSources = sources
		return nil
	})
	g.Go(func() error {
		items, err := c.provider.TopItems(ctx, c.topLimit)
		if err != nil {
			record(err)
			return nil
		}
		snap.TopItems = items.Queries
		snap.TopBlocked = items.Blocked
		return nil
	})
	g.Go(func() error {
		series, err := c.provider.QueriesOverTime(ctx)
		if err != nil {
			record(err)
			return nil
		}
		snap.Series = series
		return nil
	})
	_ = g.Wait()

	if err := errs.ErrorOrNil(); err != nil {
		c.log.Warn("%s: %d of 4 sub-queries failed: %v", c.target.ID, len(errs.Errors), err)
	}
	return snap
}

// persist writes snap to the store, if one is configured.
func (c *Coordinator) persist(snap metrics.Snapshot) {
	if c.store == nil {
		return
	}
	if err := c.store.PutSnapshot(c.target.ID, snap, c.now()); err != nil {
		c.log.Warn("%s: caching snapshot: %v", c.target.ID, err)
	}
}
