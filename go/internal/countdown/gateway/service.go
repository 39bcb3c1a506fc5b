package gateway

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/reindeergames/go/internal/countdown"
	"github.com/mcdev12/reindeergames/go/internal/countdown/events"
	"github.com/rs/zerolog/log"
)

// Service is the countdown gateway: it drives the clock and pushes every
// tick to WebSocket displays and the optional publisher
type Service struct {
	clock             *countdown.Clock
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	publisher         Publisher
	wall              clockwork.Clock

	liveSent atomic.Bool
}

// Config holds configuration for the countdown gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	// Wall only stamps event envelopes and TickedAt; snapshots are computed
	// from the countdown clock's own reading. Defaults to the real clock.
	Wall clockwork.Clock
}

// DefaultConfig returns default configuration for the countdown gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new countdown gateway service. publisher may be nil.
func NewService(config Config, clock *countdown.Clock, publisher Publisher) *Service {
	wall := config.Wall
	if wall == nil {
		wall = clockwork.NewRealClock()
	}

	s := &Service{
		clock:             clock,
		connectionManager: NewConnectionManager(config.ConnectionConfig),
		publisher:         publisher,
		wall:              wall,
	}
	s.stateHandler = NewStateHandler(clock, wall.Now)
	s.wsHandler = NewWebSocketHandler(s.connectionManager, s.initialEvent)
	return s
}

// Start runs the connection manager and the countdown until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().
		Time("target", s.clock.Target()).
		Dur("interval", s.clock.Interval()).
		Msg("starting countdown gateway service")

	go s.connectionManager.Start(ctx)

	handle := s.clock.Start(ctx, func(snap countdown.Snapshot) {
		s.handleTick(ctx, snap)
	})

	// Wait for context cancellation
	<-ctx.Done()

	log.Info().Msg("countdown gateway service shutting down")
	handle.Stop()
	<-handle.Done()
	return s.Stop()
}

// Stop releases the publisher
func (s *Service) Stop() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close publisher")
		}
	}
	log.Info().Msg("countdown gateway service stopped")
	return nil
}

func (s *Service) handleTick(ctx context.Context, snap countdown.Snapshot) {
	now := s.wall.Now()

	tick, err := NewEvent(EventTypeCountdownTick, events.NewTickPayload(s.clock.Target(), snap, now), now)
	if err != nil {
		log.Error().Err(err).Msg("failed to build tick event")
		return
	}
	s.emit(ctx, tick)

	// Announce the transition exactly once
	if snap.Live() && s.liveSent.CompareAndSwap(false, true) {
		live, err := NewEvent(EventTypeCountdownLive, events.CountdownLivePayload{
			Target: s.clock.Target(),
			LiveAt: now,
		}, now)
		if err != nil {
			log.Error().Err(err).Msg("failed to build live event")
			return
		}
		log.Info().Time("target", s.clock.Target()).Msg("countdown reached target")
		s.emit(ctx, live)
	}
}

func (s *Service) emit(ctx context.Context, event *CountdownEvent) {
	s.connectionManager.Broadcast(event)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Msg("failed to publish countdown event")
	}
}

// initialEvent builds the tick a display receives on connect. It is nil when
// the clock is unavailable and no tick has been delivered yet.
func (s *Service) initialEvent() *CountdownEvent {
	snap, err := s.clock.CurrentSnapshot()
	if err != nil {
		if _, ok := s.clock.Latest(); !ok {
			log.Warn().Err(err).Msg("no snapshot yet, new display waits for the first tick")
			return nil
		}
		log.Warn().Err(err).Msg("sending last known snapshot to new display")
	}
	now := s.wall.Now()
	event, err := NewEvent(EventTypeCountdownTick, events.NewTickPayload(s.clock.Target(), snap, now), now)
	if err != nil {
		log.Error().Err(err).Msg("failed to build initial event")
		return nil
	}
	return event
}

// RegisterRoutes registers the WebSocket and state HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("countdown gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "countdown_gateway"
	stats["target"] = s.clock.Target().Format(time.RFC3339)
	stats["live_announced"] = s.liveSent.Load()
	return stats
}
