package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/errors"
)

// Call outcomes used as the outcome label.
const (
	OutcomeOK       = "ok"
	OutcomeGraceful = "graceful"
	OutcomeFatal    = "fatal"
)

// Metrics provides Prometheus metrics for callback invocations on a
// private registry.
type Metrics struct {
	calls      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	logEntries *prometheus.CounterVec
	inFlight   prometheus.Gauge
	registry   *prometheus.Registry
}

var _ callback.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors under namespace and registers them.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callback_calls_total",
				Help:      "Total number of callback invocations by outcome",
			},
			[]string{"callback", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "callback_duration_seconds",
				Help:      "Duration of callback invocations in seconds, marshalling included",
				Buckets:   []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"callback"},
		),
		logEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "log_entries_total",
				Help:      "Total number of log channel entries by level",
			},
			[]string{"callback", "level"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "callbacks_in_flight",
				Help:      "Current number of running callback invocations",
			},
		),
	}
	m.registry.MustRegister(m.calls, m.duration, m.logEntries, m.inFlight)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records the outcome and duration of one invocation.
func (m *Metrics) Observe(ctx context.Context, callbackID string) (context.Context, func(*callback.Result, error)) {
	start := time.Now()
	m.inFlight.Inc()
	return ctx, func(res *callback.Result, err error) {
		m.inFlight.Dec()
		m.duration.WithLabelValues(callbackID).Observe(time.Since(start).Seconds())
		m.calls.WithLabelValues(callbackID, Outcome(res, err)).Inc()
	}
}

// Sink counts log channel entries by level.
func (m *Metrics) Sink() bridge.Sink { return countingSink{m.logEntries} }

type countingSink struct {
	entries *prometheus.CounterVec
}

func (s countingSink) Write(call *bridge.Call, e bridge.Entry) {
	s.entries.WithLabelValues(call.Callback(), e.Level.String()).Inc()
}

// Outcome classifies an invocation. Failures are labelled with their
// error kind; a call that logged at Error level but still returned values
// is graceful.
func Outcome(res *callback.Result, err error) string {
	if err != nil {
		if k := errors.KindOf(err); k != "" {
			return string(k)
		}
		return "error"
	}
	if res == nil {
		return OutcomeOK
	}
	if res.Fatal {
		return OutcomeFatal
	}
	for _, e := range res.Entries {
		if e.Level == bridge.LevelError {
			return OutcomeGraceful
		}
	}
	return OutcomeOK
}
