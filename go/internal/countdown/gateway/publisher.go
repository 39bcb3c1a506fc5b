package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Publisher forwards countdown events to other consumers
type Publisher interface {
	Publish(ctx context.Context, event *CountdownEvent) error
	Close() error
}

// NATSConfig holds configuration for the NATS publisher
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g., "tournament.countdown"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS publisher configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "tournament.countdown",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes countdown events to NATS subjects
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher connects to NATS and returns a publisher
func NewNATSPublisher(config NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("reindeergames-countdown"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	prefix := strings.TrimSuffix(config.SubjectPrefix, ".")
	if prefix == "" {
		prefix = DefaultNATSConfig().SubjectPrefix
	}

	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType EventType) string {
	return SubjectFor(p.prefix, eventType)
}

// SubjectFor maps an event type onto a lower-case subject under prefix.
func SubjectFor(prefix string, eventType EventType) string {
	switch eventType {
	case EventTypeCountdownTick:
		return prefix + ".tick"
	case EventTypeCountdownLive:
		return prefix + ".live"
	default:
		return prefix + "." + strings.ToLower(string(eventType))
	}
}

// Publish sends the event envelope as JSON. Core NATS publishes are
// fire-and-forget; ctx is honoured only before the write.
func (p *NATSPublisher) Publish(ctx context.Context, event *CountdownEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(event.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Int("size", len(data)).
		Msg("published countdown event")
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	log.Info().Msg("closing NATS publisher")
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
