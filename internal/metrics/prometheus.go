package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	onlineGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "olimpiad_stream_clients",
		Help: "Number of connected schema stream clients",
	})
	pushCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "olimpiad_schema_events_pushed_total",
		Help: "Total number of schema events delivered to stream clients",
	})
	dropCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "olimpiad_schema_events_dropped_total",
		Help: "Schema events not delivered because a client or the hub was backed up",
	})
	fanOutDocs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "olimpiad_fanout_documents_total",
		Help: "Records matched by dynamic feature fan-outs",
	}, []string{"direction"})
	fanOutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "olimpiad_fanout_duration_seconds",
		Help:    "Duration of dynamic feature fan-outs",
		Buckets: prometheus.DefBuckets,
	}, []string{"direction"})
	fanOutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "olimpiad_fanout_failures_total",
		Help: "Fan-outs that returned an error and may be partially applied",
	}, []string{"direction"})
)

type PrometheusObserver struct{}

// NewPrometheusObserver returns an observer backed by the package collectors.
// The collectors are process globals, so every observer reports into the
// same series.
func NewPrometheusObserver() *PrometheusObserver {
	return &PrometheusObserver{}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *PrometheusObserver) IncOnline() {
	onlineGauge.Inc()
}

func (p *PrometheusObserver) DecOnline() {
	onlineGauge.Dec()
}

func (p *PrometheusObserver) RecordPush() {
	pushCounter.Inc()
}

func (p *PrometheusObserver) RecordDrop() {
	dropCounter.Inc()
}

func (p *PrometheusObserver) ObserveFanOut(direction string, matched int64, seconds float64) {
	fanOutDocs.WithLabelValues(direction).Add(float64(matched))
	fanOutDuration.WithLabelValues(direction).Observe(seconds)
}

func (p *PrometheusObserver) FanOutFailed(direction string) {
	fanOutFailures.WithLabelValues(direction).Inc()
}
