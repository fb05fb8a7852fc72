package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proctor"

// Metrics defines our Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	incidentsTotal  *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	liveEndpoints   prometheus.Gauge
	dispatchLatency *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound socket events dispatched, by type.",
		}, []string{"event"}),
		incidentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_total",
			Help:      "Incidents recorded, by kind.",
		}, []string{"kind"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Handler failures, by event type and reason.",
		}, []string{"event", "reason"}),
		liveEndpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_endpoints",
			Help:      "Currently connected socket endpoints.",
		}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.eventsTotal,
		m.incidentsTotal,
		m.failuresTotal,
		m.liveEndpoints,
		m.dispatchLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) EventDispatched(event string, seconds float64) {
	m.eventsTotal.WithLabelValues(event).Inc()
	m.dispatchLatency.WithLabelValues(event).Observe(seconds)
}

func (m *Metrics) IncidentRecorded(kind string) {
	m.incidentsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Failure(event, reason string) {
	m.failuresTotal.WithLabelValues(event, reason).Inc()
}

func (m *Metrics) EndpointConnected() {
	m.liveEndpoints.Inc()
}

func (m *Metrics) EndpointDisconnected() {
	m.liveEndpoints.Dec()
}
