package configcat

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// fetchMetrics holds the Prometheus collectors a client reports to.
// A nil registerer leaves the collectors unregistered, they still count.
type fetchMetrics struct {
	fetches     *prometheus.CounterVec
	duration    prometheus.Histogram
	joins       prometheus.Counter
	cacheErrors *prometheus.CounterVec
}

func newFetchMetrics(reg prometheus.Registerer) *fetchMetrics {
	m := &fetchMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "configcat",
			Name:      "config_fetches_total",
			Help:      "Number of configuration fetch attempts by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "configcat",
			Name:      "config_fetch_duration_seconds",
			Help:      "Duration of configuration fetch attempts.",
			Buckets:   prometheus.DefBuckets,
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "configcat",
			Name:      "config_fetch_joins_total",
			Help:      "Number of requests served by attaching to an in-flight fetch.",
		}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "configcat",
			Name:      "cache_errors_total",
			Help:      "Number of failed config cache operations.",
		}, []string{"op"}),
	}
	if reg == nil {
		return m
	}
	m.fetches = register(reg, m.fetches)
	m.duration = register(reg, m.duration)
	m.joins = register(reg, m.joins)
	m.cacheErrors = register(reg, m.cacheErrors)
	return m
}

// register registers c, reusing an identical collector that is already
// registered so that several clients can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *fetchMetrics) observeFetch(status FetchStatus, duration time.Duration) {
	m.fetches.WithLabelValues(status.String()).Inc()
	m.duration.Observe(duration.Seconds())
}

func (m *fetchMetrics) observeJoin() {
	m.joins.Inc()
}

func (m *fetchMetrics) observeCacheError(op string) {
	m.cacheErrors.WithLabelValues(op).Inc()
}
