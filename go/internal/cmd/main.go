package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/reindeergames/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.NewConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	services, err := setupServices(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	log.Info().
		Str("event", services.Content.Name).
		Time("target", services.Clock.Target()).
		Dur("interval", services.Clock.Interval()).
		Bool("nats", cfg.NATSEnabled()).
		Str("port", cfg.Port).
		Msg("starting countdown service")

	server := setupServer(cfg, services)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start gateway service (drives the clock and broadcasts ticks)
	gatewayDone := make(chan struct{})
	go func() {
		defer close(gatewayDone)
		if err := services.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("countdown gateway failed")
		}
	}()

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop the clock and close display connections first so Shutdown
	// is not left waiting on them
	cancel()
	select {
	case <-gatewayDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("timed out waiting for countdown gateway")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("countdown service shutdown complete")
}
