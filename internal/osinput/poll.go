package osinput

import (
	"context"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/vedantwpatil/mouse-listener/internal/tracking"
)

// PollSource samples the cursor position with robotgo at a fixed rate and
// emits a move event whenever it changes. It reports no button events, so
// the click log stays empty when it is selected.
type PollSource struct {
	interval time.Duration
	locate   func() (int, int)
}

// minPollInterval keeps the ticker period positive for absurd rates.
const minPollInterval = time.Millisecond

// PollOption configures a PollSource.
type PollOption func(*PollSource)

// WithLocator replaces robotgo.Location as the position reader.
func WithLocator(locate func() (int, int)) PollOption {
	return func(s *PollSource) {
		if locate != nil {
			s.locate = locate
		}
	}
}

func NewPollSource(fps int, opts ...PollOption) *PollSource {
	if fps <= 0 {
		fps = 60
	}
	interval := time.Second / time.Duration(fps)
	if interval < minPollInterval {
		interval = minPollInterval
	}
	s := &PollSource{
		interval: interval,
		locate:   robotgo.Location,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PollSource) Stream(ctx context.Context, emit func(tracking.Event)) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	first := true
	var lastX, lastY int
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			x, y := s.locate()
			if !first && x == lastX && y == lastY {
				continue
			}
			first = false
			lastX, lastY = x, y
			emit(tracking.Move(float64(x), float64(y)))
		}
	}
}
