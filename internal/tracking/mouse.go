package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/vedantwpatil/mouse-listener/internal/eventlog"
	"github.com/vedantwpatil/mouse-listener/pkg/logger"
	"github.com/vedantwpatil/mouse-listener/pkg/metrics"
)

// ClickLogger persists click events. eventlog.Writer implements it.
type ClickLogger interface {
	LogClick(x, y, timestamp float64) error
}

// Listener applies input events to a MouseState and logs left clicks.
type Listener struct {
	state   *MouseState
	clicks  ClickLogger
	source  EventSource
	clock   func() time.Time
	log     logger.Logger
	metrics *metrics.Manager
}

// Option configures a Listener.
type Option func(*Listener)

func WithClock(clock func() time.Time) Option {
	return func(l *Listener) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(l *Listener) {
		if log != nil {
			l.log = log
		}
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(l *Listener) { l.metrics = m }
}

func NewListener(state *MouseState, clicks ClickLogger, source EventSource, opts ...Option) *Listener {
	l := &Listener{
		state:  state,
		clicks: clicks,
		source: source,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Named("tracking")
	}
	return l
}

func (l *Listener) State() *MouseState { return l.state }

// Handle classifies one event. It is called sequentially by the source.
//
// Both the press and the release of the left button record a click, so one
// physical click yields two log lines. The click position is the last move
// seen before the button event; coordinates on the button event are ignored.
func (l *Listener) Handle(ev Event) {
	l.metrics.EventObserved(ev.Kind.String())

	switch ev.Kind {
	case KindMove:
		l.state.UpdateMove(ev.X, ev.Y)
	case KindButtonPress, KindButtonRelease:
		if ev.Button != ButtonLeft {
			return
		}
		pos := l.state.LastMove()
		l.state.UpdateClick(pos.X, pos.Y)

		ts := eventlog.UnixSeconds(l.clock())
		if err := l.clicks.LogClick(pos.X, pos.Y, ts); err != nil {
			l.metrics.LogWriteFailed()
			l.log.Error(context.Background(), "failed to log click event",
				logger.Float64("x", pos.X),
				logger.Float64("y", pos.Y),
				logger.Error(err))
			return
		}
		l.metrics.ClickLogged()
	}
}

// Run blocks on the event source until ctx is done or the subscription
// fails. Cancellation returns nil; a subscription failure is logged and
// returned without retry.
func (l *Listener) Run(ctx context.Context) error {
	l.metrics.ListenerStarted()
	l.log.Info(ctx, "starting mouse listener")

	err := l.source.Stream(ctx, l.Handle)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		l.log.Info(ctx, "mouse listener stopped")
		return nil
	}

	l.metrics.SubscriptionFailed()
	l.log.Error(ctx, "error listening for mouse events", logger.Error(err))
	return err
}

// Start runs the listener on its own goroutine. The returned channel
// receives Run's result and is then closed.
func (l *Listener) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- l.Run(ctx)
	}()
	return done
}
