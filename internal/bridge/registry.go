// Package bridge owns the process-wide listener slot read by the C surface.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vedantwpatil/mouse-listener/internal/config"
	"github.com/vedantwpatil/mouse-listener/internal/eventlog"
	"github.com/vedantwpatil/mouse-listener/internal/tracking"
	"github.com/vedantwpatil/mouse-listener/pkg/logger"
	"github.com/vedantwpatil/mouse-listener/pkg/metrics"
)

// Unavailable is reported for both coordinates until a listener is running.
const Unavailable = -1.0

// ErrAlreadyStarted is returned by every Start after the first.
var ErrAlreadyStarted = errors.New("mouse listener already started")

// ErrNoSource is returned by Start when no SourceFactory was configured.
var ErrNoSource = errors.New("no event source configured")

// SourceFactory builds the event source for a config.
type SourceFactory func(cfg *config.Config) (tracking.EventSource, error)

type session struct {
	state  *tracking.MouseState
	failed atomic.Bool
	done   chan struct{}
}

// Registry publishes a single listener session. The slot is written at most
// once, with CompareAndSwap, and never cleared; readers see either nothing
// or a fully built session.
type Registry struct {
	slot      atomic.Pointer[session]
	newSource SourceFactory
	log       logger.Logger
	metrics   *metrics.Manager
	opts      []tracking.Option
}

// Option configures a Registry.
type Option func(*Registry)

func WithSourceFactory(f SourceFactory) Option {
	return func(r *Registry) {
		if f != nil {
			r.newSource = f
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithListenerOptions passes extra options to the tracking.Listener.
func WithListenerOptions(opts ...tracking.Option) Option {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{newSource: func(*config.Config) (tracking.EventSource, error) {
		return nil, ErrNoSource
	}}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("bridge")
	}
	return r
}

// Start publishes a new MouseState and runs a listener for it on its own
// goroutine. Only the first call takes effect; later calls leave the running
// listener authoritative and return ErrAlreadyStarted. There is no stop: the
// listener runs until ctx is done, which for the C surface is never.
func (r *Registry) Start(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if r.slot.Load() != nil {
		return r.reject(ctx)
	}
	source, err := r.newSource(cfg)
	if err != nil {
		return fmt.Errorf("build event source: %w", err)
	}

	s := &session{
		state: &tracking.MouseState{},
		done:  make(chan struct{}),
	}
	if !r.slot.CompareAndSwap(nil, s) {
		return r.reject(ctx)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		r.log.Warn(ctx, "keeping current log level", logger.Error(err))
	}

	listenerOpts := append([]tracking.Option{
		tracking.WithMetrics(r.metrics),
		tracking.WithLogger(r.log.Named("tracking")),
	}, r.opts...)
	listener := tracking.NewListener(s.state, eventlog.NewWriter(cfg.LogPath), source, listenerOpts...)

	r.log.Info(ctx, "mouse listener published",
		logger.String("source", cfg.Source),
		logger.String("log_path", cfg.LogPath))

	result := listener.Start(ctx)
	go func() {
		defer close(s.done)
		if err := <-result; err != nil {
			s.failed.Store(true)
		}
	}()
	return nil
}

func (r *Registry) reject(ctx context.Context) error {
	r.metrics.ListenerStartRejected()
	r.log.Warn(ctx, "start ignored, mouse listener already running")
	return ErrAlreadyStarted
}

// MousePosition returns the last pointer position, or (Unavailable,
// Unavailable) when no listener is running.
func (r *Registry) MousePosition() (float64, float64) {
	s := r.live()
	if s == nil {
		return Unavailable, Unavailable
	}
	p := s.state.LastMove()
	return p.X, p.Y
}

// LastClickPosition returns the last click position, or (Unavailable,
// Unavailable) when no listener is running.
func (r *Registry) LastClickPosition() (float64, float64) {
	s := r.live()
	if s == nil {
		return Unavailable, Unavailable
	}
	p := s.state.LastClick()
	return p.X, p.Y
}

// Done is closed when the published listener exits. It is nil before Start.
func (r *Registry) Done() <-chan struct{} {
	s := r.slot.Load()
	if s == nil {
		return nil
	}
	return s.done
}

// live returns the published session unless its subscription failed, in
// which case callers observe the same values as before any start.
func (r *Registry) live() *session {
	s := r.slot.Load()
	if s == nil || s.failed.Load() {
		return nil
	}
	return s
}

// Stats returns the listener counters. Before any metrics manager is
// configured every field is zero.
func (r *Registry) Stats() metrics.Snapshot {
	snap, err := r.metrics.Snapshot()
	if err != nil {
		r.log.Warn(context.Background(), "failed to read listener metrics", logger.Error(err))
	}
	return snap
}

// ReadMetrics renders the text exposition of the listener metrics into dst
// as a NUL-terminated string, truncating to fit, and returns the length of
// the full text excluding the terminator. A result >= len(dst) means dst was
// too small.
func (r *Registry) ReadMetrics(dst []byte) int {
	var buf bytes.Buffer
	if err := r.metrics.WriteText(&buf); err != nil {
		r.log.Warn(context.Background(), "failed to render listener metrics", logger.Error(err))
	}
	if len(dst) > 0 {
		n := copy(dst[:len(dst)-1], buf.Bytes())
		dst[n] = 0
	}
	return buf.Len()
}
