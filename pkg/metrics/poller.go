package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PollerMetrics records the behavior of the order polling reconciler.
type PollerMetrics struct {
	cycles   *prometheus.CounterVec
	failures *prometheus.CounterVec
	events   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPollerMetrics registers the reconciler metrics on the provided registerer.
func NewPollerMetrics(reg prometheus.Registerer) *PollerMetrics {
	if reg == nil {
		return &PollerMetrics{}
	}
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_cycles_total",
		Help: "Completed polling cycles.",
	}, []string{"actor_role"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_fetch_failures_total",
		Help: "Polling cycles that failed to fetch the order list.",
	}, []string{"actor_role"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_events_total",
		Help: "Change events raised by the reconciler.",
	}, []string{"actor_role", "event"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poller_fetch_duration_seconds",
		Help:    "Duration of order list fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"actor_role"})
	reg.MustRegister(cycles, failures, events, latency)
	return &PollerMetrics{
		cycles:   cycles,
		failures: failures,
		events:   events,
		latency:  latency,
	}
}

// IncCycle counts one completed polling cycle for the actor.
func (p *PollerMetrics) IncCycle(role string) {
	if p == nil || p.cycles == nil {
		return
	}
	p.cycles.WithLabelValues(normalizeLabel(role)).Inc()
}

// IncFetchFailure counts one failed fetch for the actor.
func (p *PollerMetrics) IncFetchFailure(role string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(role)).Inc()
}

// IncEvent counts one raised change event.
func (p *PollerMetrics) IncEvent(role, event string) {
	if p == nil || p.events == nil {
		return
	}
	p.events.WithLabelValues(normalizeLabel(role), normalizeLabel(event)).Inc()
}

// ObserveFetch records how long one order list fetch took.
func (p *PollerMetrics) ObserveFetch(role string, duration time.Duration) {
	if p == nil || p.latency == nil {
		return
	}
	p.latency.WithLabelValues(normalizeLabel(role)).Observe(duration.Seconds())
}
