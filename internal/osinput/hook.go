// Package osinput adapts OS-level input facilities to tracking.EventSource.
package osinput

import (
	"context"
	"fmt"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/vedantwpatil/mouse-listener/internal/tracking"
)

const defaultHookStartTimeout = 5 * time.Second

// HookSource streams events from the global gohook hook. The hook is process
// wide, so only one HookSource may stream at a time.
type HookSource struct {
	startTimeout time.Duration
	start        func() chan hook.Event
	end          func()
}

// HookOption configures a HookSource.
type HookOption func(*HookSource)

// WithHookFuncs replaces hook.Start and hook.End.
func WithHookFuncs(start func() chan hook.Event, end func()) HookOption {
	return func(s *HookSource) {
		if start != nil {
			s.start = start
		}
		if end != nil {
			s.end = end
		}
	}
}

func NewHookSource(startTimeout time.Duration, opts ...HookOption) *HookSource {
	if startTimeout <= 0 {
		startTimeout = defaultHookStartTimeout
	}
	s := &HookSource{
		startTimeout: startTimeout,
		start:        hook.Start,
		end:          hook.End,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stream starts the hook and forwards translated events until ctx is done or
// the hook shuts down.
//
// hook.Start returns no status: when the backend cannot attach (no display,
// missing permission) the channel just stays silent. Stream therefore waits
// up to startTimeout for the first event, normally HookEnabled, and fails
// with tracking.ErrSubscriptionFailed if none arrives.
func (s *HookSource) Stream(ctx context.Context, emit func(tracking.Event)) error {
	evChan := s.start()
	defer s.end()

	timer := time.NewTimer(s.startTimeout)
	defer timer.Stop()

	enabled := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if !enabled {
				return fmt.Errorf("%w: hook not enabled within %s", tracking.ErrSubscriptionFailed, s.startTimeout)
			}
		case e, ok := <-evChan:
			if !ok || e.Kind == hook.HookDisabled {
				return tracking.ErrSubscriptionClosed
			}
			enabled = true
			if e.Kind == hook.HookEnabled {
				continue
			}
			emit(translate(e))
		}
	}
}

// translate maps a gohook event onto the tracking event model.
//
// gohook names its mouse kinds after libuiohook's constants shifted by one:
// MouseHold is the button press, MouseDown the release, and MouseUp the
// synthesised "clicked" event that follows a release. The last one is not a
// state transition and is classified as other.
func translate(e hook.Event) tracking.Event {
	switch e.Kind {
	case hook.MouseMove, hook.MouseDrag:
		return tracking.Move(float64(e.X), float64(e.Y))
	case hook.MouseHold:
		return tracking.Event{Kind: tracking.KindButtonPress, Button: button(e.Button), X: float64(e.X), Y: float64(e.Y)}
	case hook.MouseDown:
		return tracking.Event{Kind: tracking.KindButtonRelease, Button: button(e.Button), X: float64(e.X), Y: float64(e.Y)}
	default:
		return tracking.Event{Kind: tracking.KindOther}
	}
}

func button(code uint16) tracking.Button {
	switch code {
	case hook.MouseMap["left"]:
		return tracking.ButtonLeft
	case hook.MouseMap["right"]:
		return tracking.ButtonRight
	case hook.MouseMap["center"]:
		return tracking.ButtonMiddle
	case 0:
		return tracking.ButtonNone
	default:
		return tracking.ButtonOther
	}
}
