// Package metrics counts what the listener observes and what it drops.
//
// Failures on the listener path never reach the foreign caller as errors, so
// these counters are the caller-visible signal besides the diagnostic log.
// They are kept on a private registry, read back through Snapshot and
// WriteText, and are not served over HTTP.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Event kind label values.
const (
	KindMove    = "move"
	KindPress   = "press"
	KindRelease = "release"
	KindOther   = "other"
)

// Manager owns the listener counters.
type Manager struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	eventsObserved       *prometheus.CounterVec
	clicksLogged         prometheus.Counter
	logWriteFailures     prometheus.Counter
	listenerStarts       prometheus.Counter
	listenerStartsDenied prometheus.Counter
	subscriptionFailures prometheus.Counter
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithRegistry registers the counters on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager creates a Manager with its counters registered.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "mouse_listener",
		subsystem: "tracking",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.eventsObserved = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_observed_total",
		Help:      "Input events delivered by the OS hook, by kind",
	}, []string{"kind"})
	m.clicksLogged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clicks_logged_total",
		Help:      "Click records appended to the event log",
	})
	m.logWriteFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "log_write_failures_total",
		Help:      "Click records dropped because the event log could not be written",
	})
	m.listenerStarts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "listener_starts_total",
		Help:      "Listeners started",
	})
	m.listenerStartsDenied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "listener_starts_rejected_total",
		Help:      "Start calls rejected because a listener was already running",
	})
	m.subscriptionFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscription_failures_total",
		Help:      "Listeners that exited because the OS event subscription failed",
	})
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

func (m *Manager) EventObserved(kind string) {
	if m == nil {
		return
	}
	m.eventsObserved.WithLabelValues(kind).Inc()
}

func (m *Manager) ClickLogged() {
	if m == nil {
		return
	}
	m.clicksLogged.Inc()
}

func (m *Manager) LogWriteFailed() {
	if m == nil {
		return
	}
	m.logWriteFailures.Inc()
}

func (m *Manager) ListenerStarted() {
	if m == nil {
		return
	}
	m.listenerStarts.Inc()
}

func (m *Manager) ListenerStartRejected() {
	if m == nil {
		return
	}
	m.listenerStartsDenied.Inc()
}

func (m *Manager) SubscriptionFailed() {
	if m == nil {
		return
	}
	m.subscriptionFailures.Inc()
}

// EventsObserved returns the count for one kind label.
func (m *Manager) EventsObserved(kind string) prometheus.Counter {
	return m.eventsObserved.WithLabelValues(kind)
}

func (m *Manager) ClicksLogged() prometheus.Counter { return m.clicksLogged }

func (m *Manager) LogWriteFailures() prometheus.Counter { return m.logWriteFailures }

func (m *Manager) ListenerStarts() prometheus.Counter { return m.listenerStarts }

func (m *Manager) ListenerStartsRejected() prometheus.Counter { return m.listenerStartsDenied }

func (m *Manager) SubscriptionFailures() prometheus.Counter { return m.subscriptionFailures }

// Snapshot is a point-in-time copy of the listener counters.
type Snapshot struct {
	ClicksLogged           uint64
	LogWriteFailures       uint64
	SubscriptionFailures   uint64
	ListenerStarts         uint64
	ListenerStartsRejected uint64
}

// Snapshot gathers the registry and copies the counter values.
func (m *Manager) Snapshot() (Snapshot, error) {
	if m == nil {
		return Snapshot{}, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, fmt.Errorf("gather metrics: %w", err)
	}

	values := make(map[string]uint64, len(families))
	for _, f := range families {
		var total float64
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		values[f.GetName()] = uint64(total)
	}

	name := func(n string) string { return prometheus.BuildFQName(m.namespace, m.subsystem, n) }
	return Snapshot{
		ClicksLogged:           values[name("clicks_logged_total")],
		LogWriteFailures:       values[name("log_write_failures_total")],
		SubscriptionFailures:   values[name("subscription_failures_total")],
		ListenerStarts:         values[name("listener_starts_total")],
		ListenerStartsRejected: values[name("listener_starts_rejected_total")],
	}, nil
}

// WriteText writes the registry in the Prometheus text exposition format.
func (m *Manager) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, f := range families {
		if _, err := expfmt.MetricFamilyToText(w, f); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

var global = NewManager()

// Global returns the process-wide manager used by the C surface.
func Global() *Manager { return global }
