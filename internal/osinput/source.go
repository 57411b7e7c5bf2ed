package osinput

import (
	"fmt"

	"github.com/vedantwpatil/mouse-listener/internal/config"
	"github.com/vedantwpatil/mouse-listener/internal/tracking"
)

// SourceFor returns the event source selected by cfg.Source.
func SourceFor(cfg *config.Config) (tracking.EventSource, error) {
	switch cfg.Source {
	case config.SourceHook:
		return NewHookSource(cfg.HookStartTimeout), nil
	case config.SourcePoll:
		return NewPollSource(cfg.PollFPS), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
	}
}
