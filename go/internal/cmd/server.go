package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/reindeergames/go/internal/config"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	// Register countdown gateway (WebSocket and state)
	services.Gateway.RegisterRoutes(mux)

	// Register static tournament content
	services.Site.RegisterRoutes(mux)

	// Add health check endpoint
	setupHealthCheck(mux)

	// Add service info
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(services.Gateway.GetStats()); err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server; no WriteTimeout so WebSocket streams stay open
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
