package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/reindeergames/go/internal/countdown"
	"github.com/mcdev12/reindeergames/go/internal/countdown/events"
)

const waitTimeout = 2 * time.Second

type recordingPublisher struct {
	mu     sync.Mutex
	events []*CountdownEvent
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, event *CountdownEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) snapshot() []*CountdownEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*CountdownEvent(nil), p.events...)
}

func (p *recordingPublisher) waitFor(t *testing.T, n int) []*CountdownEvent {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if got := p.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d published events, have %d", n, len(p.snapshot()))
	return nil
}

type fixture struct {
	fc        *clockwork.FakeClock
	service   *Service
	publisher *recordingPublisher
	server    *httptest.Server
	cancel    context.CancelFunc
	done      chan struct{}
	startErr  error
}

func newFixture(t *testing.T, untilTarget time.Duration) *fixture {
	t.Helper()
	return newFixtureWithNow(t, untilTarget, nil)
}

// newFixtureWithNow lets nowFn, built over the fake clock, read the wall clock.
func newFixtureWithNow(t *testing.T, untilTarget time.Duration, nowFn func(*clockwork.FakeClock) countdown.NowFunc) *fixture {
	t.Helper()

	target := time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(target.Add(-untilTarget))

	opts := []countdown.Option{countdown.WithTimeSource(fc)}
	if nowFn != nil {
		opts = append(opts, countdown.WithNowFunc(nowFn(fc)))
	}
	clock, err := countdown.New(target, opts...)
	if err != nil {
		t.Fatalf("countdown.New: %v", err)
	}

	pub := &recordingPublisher{}
	cfg := DefaultConfig()
	cfg.Wall = fc
	svc := NewService(cfg, clock, pub)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{fc: fc, service: svc, publisher: pub, server: server, cancel: cancel, done: make(chan struct{})}
	go func() {
		f.startErr = svc.Start(ctx)
		close(f.done)
	}()
	t.Cleanup(f.close)

	// The clock's ticker is created inside Start
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("waiting for ticker: %v", err)
	}
	return f
}

func (f *fixture) close() {
	f.cancel()
	select {
	case <-f.done:
	case <-time.After(waitTimeout):
	}
	f.server.Close()
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/countdown"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) CountdownEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(waitTimeout))
	var event CountdownEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func tickPayload(t *testing.T, event CountdownEvent) events.CountdownTickPayload {
	t.Helper()
	if event.Type != EventTypeCountdownTick {
		t.Fatalf("event type = %s, want %s", event.Type, EventTypeCountdownTick)
	}
	payload, err := ParseEventPayload(&event)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	return payload.(events.CountdownTickPayload)
}

func TestService_StreamsTicksToDisplays(t *testing.T) {
	f := newFixture(t, 90*time.Second)
	conn := f.dial(t)

	first := tickPayload(t, readEvent(t, conn))
	if first.Snapshot.Minutes != 1 || first.Snapshot.Seconds != 30 {
		t.Errorf("initial snapshot = %+v, want 1m30s", first.Snapshot)
	}
	if first.Display != "0d 00h 01m 30s" {
		t.Errorf("initial display = %q", first.Display)
	}

	f.fc.Advance(time.Second)
	next := tickPayload(t, readEvent(t, conn))
	if next.Snapshot.TotalSeconds() != 89 {
		t.Errorf("tick total seconds = %d, want 89", next.Snapshot.TotalSeconds())
	}
	if !next.TickedAt.Equal(f.fc.Now()) {
		t.Errorf("ticked_at = %v, want %v", next.TickedAt, f.fc.Now())
	}

	if got := f.service.connectionManager.ConnectionCount(); got != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", got)
	}
}

func (f *fixture) waitForConnections(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if f.service.connectionManager.ConnectionCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d connections", n)
}

func TestService_NoInitialEventWithoutReading(t *testing.T) {
	var available atomic.Bool
	f := newFixtureWithNow(t, 48*time.Hour, func(fc *clockwork.FakeClock) countdown.NowFunc {
		return func() (time.Time, error) {
			if !available.Load() {
				return time.Time{}, errors.New("wall clock offline")
			}
			return fc.Now(), nil
		}
	})

	if event := f.service.initialEvent(); event != nil {
		t.Fatalf("initialEvent() = %+v, want nil before any good reading", event)
	}

	conn := f.dial(t)
	f.waitForConnections(t, 1)

	available.Store(true)
	f.fc.Advance(time.Second)

	// The first frame must be the real tick, not an invented zero snapshot
	first := tickPayload(t, readEvent(t, conn))
	if first.Snapshot.Live() {
		t.Fatalf("first snapshot is live: %+v", first.Snapshot)
	}
	if got, want := first.Snapshot.TotalSeconds(), int64((48*time.Hour-time.Second)/time.Second); got != want {
		t.Errorf("first tick total seconds = %d, want %d", got, want)
	}

	// Once a tick exists, an outage falls back to it
	available.Store(false)
	event := f.service.initialEvent()
	if event == nil {
		t.Fatal("initialEvent() = nil, want last known snapshot")
	}
	if last := tickPayload(t, *event); last.Snapshot != first.Snapshot {
		t.Errorf("fallback snapshot = %+v, want %+v", last.Snapshot, first.Snapshot)
	}
}

func TestService_TickedAtUsesWallClock(t *testing.T) {
	// The countdown reads a source running 10s behind the gateway's wall clock
	f := newFixtureWithNow(t, time.Minute, func(fc *clockwork.FakeClock) countdown.NowFunc {
		return func() (time.Time, error) {
			return fc.Now().Add(-10 * time.Second), nil
		}
	})

	f.fc.Advance(time.Second)
	tick := tickPayload(t, *f.publisher.waitFor(t, 1)[0])
	if got := tick.Snapshot.TotalSeconds(); got != 69 {
		t.Errorf("snapshot total seconds = %d, want 69 from the countdown reading", got)
	}
	if !tick.TickedAt.Equal(f.fc.Now()) {
		t.Errorf("ticked_at = %v, want wall time %v", tick.TickedAt, f.fc.Now())
	}
}

func TestService_AnnouncesLiveOnce(t *testing.T) {
	f := newFixture(t, 2*time.Second)

	for i := 0; i < 4; i++ {
		f.fc.Advance(time.Second)
		// tick, tick, tick + live, tick
		want := i + 1
		if i >= 1 {
			want++
		}
		f.publisher.waitFor(t, want)
	}

	var live, ticks int
	for _, e := range f.publisher.snapshot() {
		switch e.Type {
		case EventTypeCountdownLive:
			live++
			payload, err := ParseEventPayload(e)
			if err != nil {
				t.Fatalf("parse live payload: %v", err)
			}
			lp := payload.(events.CountdownLivePayload)
			if !lp.Target.Equal(f.service.clock.Target()) {
				t.Errorf("live target = %v, want %v", lp.Target, f.service.clock.Target())
			}
		case EventTypeCountdownTick:
			ticks++
		}
	}
	if live != 1 {
		t.Errorf("live events = %d, want 1", live)
	}
	if ticks != 4 {
		t.Errorf("tick events = %d, want 4", ticks)
	}
	if stats := f.service.GetStats(); stats["live_announced"] != true {
		t.Errorf("live_announced = %v, want true", stats["live_announced"])
	}
}

func TestService_StopClosesPublisher(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.cancel()

	select {
	case <-f.done:
		if f.startErr != nil {
			t.Fatalf("Start returned error: %v", f.startErr)
		}
	case <-time.After(waitTimeout):
		t.Fatal("service did not stop")
	}

	f.publisher.mu.Lock()
	closed := f.publisher.closed
	f.publisher.mu.Unlock()
	if !closed {
		t.Error("publisher was not closed")
	}
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t, time.Hour)

	resp, err := http.Get(f.server.URL + "/ws/stats")
	if err != nil {
		t.Fatalf("GET /ws/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["active_connections"] != float64(0) {
		t.Errorf("active_connections = %v, want 0", stats["active_connections"])
	}
}
