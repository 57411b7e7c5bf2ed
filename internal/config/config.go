// Package config holds listener settings. The C surface always runs with
// New(); Go callers and start_mouse_listener_with_config may layer a YAML
// file over those defaults with Load.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Event sources.
const (
	SourceHook = "hook"
	SourcePoll = "poll"
)

// DefaultLogPath is the click log target, relative to the working directory.
const DefaultLogPath = "data/movements.json"

// MaxPollFPS bounds the poll source sampling rate.
const MaxPollFPS = 1000

type Config struct {
	// LogPath is the append-only click log.
	LogPath string `koanf:"log_path"`

	// LogLevel controls diagnostic verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Source selects the OS event source: "hook" or "poll".
	Source string `koanf:"source"`

	// PollFPS is the sampling rate of the poll source.
	PollFPS int `koanf:"poll_fps"`

	// HookStartTimeout is how long the hook source waits for the OS hook to
	// report itself enabled before treating the subscription as failed.
	HookStartTimeout time.Duration `koanf:"hook_start_timeout"`
}

func New() *Config {
	return &Config{
		LogPath:  DefaultLogPath,
		LogLevel: "info",
		Source:   SourceHook,
		PollFPS:  60,

		HookStartTimeout: 5 * time.Second,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LogPath) == "" {
		return fmt.Errorf("%w: log_path must not be empty", ErrInvalidConfig)
	}
	switch c.Source {
	case SourceHook:
		if c.HookStartTimeout <= 0 {
			return fmt.Errorf("%w: hook_start_timeout must be positive, got %s", ErrInvalidConfig, c.HookStartTimeout)
		}
	case SourcePoll:
		if c.PollFPS <= 0 || c.PollFPS > MaxPollFPS {
			return fmt.Errorf("%w: poll_fps must be in 1..%d, got %d", ErrInvalidConfig, MaxPollFPS, c.PollFPS)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
