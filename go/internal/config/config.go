package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/mcdev12/reindeergames/go/internal/countdown"
	"github.com/rs/zerolog"
)

// Config holds service settings read from the environment.
type Config struct {
	Port           string
	Target         string
	Timezone       string
	Interval       time.Duration
	ContentPath    string
	NATSURL        string
	NATSSubject    string
	LogLevel       zerolog.Level
	AllowedOrigins []string
}

// NewConfigFromEnv reads environment variables (with defaults).
func NewConfigFromEnv() (Config, error) {
	interval, err := time.ParseDuration(getEnv("COUNTDOWN_INTERVAL", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("COUNTDOWN_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return Config{}, fmt.Errorf("COUNTDOWN_INTERVAL must be positive, got %s", interval)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		Target:         getEnv("COUNTDOWN_TARGET", countdown.DefaultTarget),
		Timezone:       getEnv("COUNTDOWN_TIMEZONE", countdown.DefaultTimezone),
		Interval:       interval,
		ContentPath:    os.Getenv("CONTENT_PATH"),
		NATSURL:        os.Getenv("NATS_URL"),
		NATSSubject:    getEnv("NATS_SUBJECT", "tournament.countdown"),
		LogLevel:       level,
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}, nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("COUNTDOWN_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TargetTime parses Target in the configured zone.
func (c Config) TargetTime() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	return countdown.ParseTarget(c.Target, loc)
}

// NATSEnabled reports whether ticks should be published.
func (c Config) NATSEnabled() bool {
	return c.NATSURL != ""
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
