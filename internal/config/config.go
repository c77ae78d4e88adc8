package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds server settings read from the environment.
type Config struct {
	Addr            string
	LogLevel        zerolog.Level
	LogPretty       bool
	Heartbeat       time.Duration
	GameIdleTTL     time.Duration
	ShutdownTimeout time.Duration
}

// Default returns the settings used when no variable is set.
func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        zerolog.InfoLevel,
		Heartbeat:       15 * time.Second,
		GameIdleTTL:     2 * time.Hour,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load reads ADDR, LOG_LEVEL, LOG_PRETTY, SSE_HEARTBEAT, GAME_IDLE_TTL and
// SHUTDOWN_TIMEOUT via getenv, falling back to Default for unset keys.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	if v := getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := zerolog.ParseLevel(v)
		if err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if v := getenv("LOG_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = b
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"SSE_HEARTBEAT", &cfg.Heartbeat},
		{"GAME_IDLE_TTL", &cfg.GameIdleTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	} {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		dur, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", d.key, err)
		}
		if dur <= 0 {
			return cfg, fmt.Errorf("%s: must be positive, got %s", d.key, v)
		}
		*d.dst = dur
	}
	return cfg, nil
}
