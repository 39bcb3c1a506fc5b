package main

import (
	"fmt"

	"github.com/mcdev12/reindeergames/go/internal/config"
	"github.com/mcdev12/reindeergames/go/internal/countdown"
	"github.com/mcdev12/reindeergames/go/internal/countdown/gateway"
	"github.com/mcdev12/reindeergames/go/internal/site"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Clock   *countdown.Clock
	Gateway *gateway.Service
	Site    *site.Handler
	Content *site.Content
}

func setupServices(cfg config.Config) (*Services, error) {
	// Config → Clock → Publisher → Gateway; content is independent

	target, err := cfg.TargetTime()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve countdown target: %w", err)
	}

	clock, err := countdown.New(target, countdown.WithInterval(cfg.Interval))
	if err != nil {
		return nil, fmt.Errorf("failed to create countdown clock: %w", err)
	}

	var publisher gateway.Publisher
	if cfg.NATSEnabled() {
		natsCfg := gateway.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.SubjectPrefix = cfg.NATSSubject

		natsPublisher, err := gateway.NewNATSPublisher(natsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		log.Info().Str("nats_url", cfg.NATSURL).Str("subject", cfg.NATSSubject).Msg("publishing countdown events to NATS")
		publisher = natsPublisher
	}

	content, err := site.Load(cfg.ContentPath)
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		return nil, fmt.Errorf("failed to load site content: %w", err)
	}

	return &Services{
		Clock:   clock,
		Gateway: gateway.NewService(gateway.DefaultConfig(), clock, publisher),
		Site:    site.NewHandler(content),
		Content: content,
	}, nil
}
