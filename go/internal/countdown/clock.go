package countdown

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the refresh cadence of a started clock.
const DefaultInterval = time.Second

// TimeSource is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type TimeSource interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// NowFunc reads the wall clock. A non-nil error or a zero time means the
// clock is unavailable for that reading.
type NowFunc func() (time.Time, error)

// Option configures a Clock.
type Option func(*Clock)

// WithTimeSource replaces the real clock, typically with a clockwork.FakeClock.
func WithTimeSource(ts TimeSource) Option {
	return func(c *Clock) { c.source = ts }
}

// WithInterval overrides the refresh cadence. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithNowFunc overrides how the wall clock is read on each tick.
func WithNowFunc(fn NowFunc) Option {
	return func(c *Clock) { c.nowFn = fn }
}

// Clock counts down to one fixed target instant.
type Clock struct {
	target   time.Time
	interval time.Duration
	source   TimeSource
	nowFn    NowFunc

	// last snapshot delivered by a tick, swapped whole
	latest atomic.Pointer[Snapshot]
}

// New creates a clock bound to target.
func New(target time.Time, opts ...Option) (*Clock, error) {
	if target.IsZero() {
		return nil, fmt.Errorf("%w: zero time", ErrInvalidTarget)
	}

	c := &Clock{
		target:   target,
		interval: DefaultInterval,
		source:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromString parses target with ParseTarget and creates a clock for it.
func NewFromString(target string, loc *time.Location, opts ...Option) (*Clock, error) {
	t, err := ParseTarget(target, loc)
	if err != nil {
		return nil, err
	}
	return New(t, opts...)
}

// Target returns the instant the clock counts down to.
func (c *Clock) Target() time.Time {
	return c.target
}

// Interval returns the refresh cadence.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// CurrentSnapshot computes the snapshot for the current wall-clock reading.
// When the clock is unavailable it returns the last delivered snapshot and an
// error wrapping ErrClockUnavailable.
func (c *Clock) CurrentSnapshot() (Snapshot, error) {
	now, err := c.now()
	if err != nil {
		last, _ := c.Latest()
		return last, err
	}
	return Compute(now, c.target), nil
}

// Latest returns the snapshot delivered by the most recent tick.
func (c *Clock) Latest() (Snapshot, bool) {
	if s := c.latest.Load(); s != nil {
		return *s, true
	}
	return Snapshot{}, false
}

func (c *Clock) now() (time.Time, error) {
	if c.nowFn == nil {
		return c.source.Now(), nil
	}

	now, err := c.nowFn()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrClockUnavailable, err)
	}
	if now.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero reading", ErrClockUnavailable)
	}
	return now, nil
}

// Handle controls one started tick loop.
type Handle struct {
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start begins delivering a fresh snapshot to onTick once per interval.
// The loop ends when Stop is called or ctx is cancelled. onTick runs on the
// loop goroutine and must not call Stop on its own handle.
func (c *Clock) Start(ctx context.Context, onTick func(Snapshot)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// Create the ticker before returning so fake clocks see it immediately
	ticker := c.source.NewTicker(c.interval)
	go c.run(ctx, h, ticker, onTick)

	log.Debug().
		Time("target", c.target).
		Dur("interval", c.interval).
		Msg("countdown started")

	return h
}

// Stop cancels the tick loop behind h. Safe to call more than once.
func (c *Clock) Stop(h *Handle) {
	h.Stop()
}

func (c *Clock) run(ctx context.Context, h *Handle, ticker clockwork.Ticker, onTick func(Snapshot)) {
	defer close(h.done)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			h.markStopped()
			log.Debug().Msg("countdown loop shutting down")
			return
		case <-ticker.Chan():
			now, err := c.now()
			if err != nil {
				log.Warn().Err(err).Msg("skipping countdown tick, keeping last snapshot")
				continue
			}

			// Wall clock stepped backwards or repeated; never deliver out of order
			if !last.IsZero() && !now.After(last) {
				log.Debug().
					Time("now", now).
					Time("last", last).
					Msg("dropping non-advancing countdown tick")
				continue
			}
			last = now

			if !h.deliver(c, Compute(now, c.target), onTick) {
				return
			}
		}
	}
}

// deliver publishes snap under the handle lock so Stop can wait out an
// in-flight callback. Returns false once the handle is stopped.
func (h *Handle) deliver(c *Clock, snap Snapshot, onTick func(Snapshot)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	c.latest.Store(&snap)
	if onTick != nil {
		onTick(snap)
	}
	return true
}

func (h *Handle) markStopped() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// Stop cancels the loop. Once it returns no further ticks are delivered.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.markStopped()
	h.cancel()
}

// Done is closed after the loop goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
