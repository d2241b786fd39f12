package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mdgraph"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	generationDuration *prom.HistogramVec
	generations        *prom.CounterVec
	broadcasts         prom.Counter
	clients            prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		generationDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of single document generations",
			Buckets:   prom.DefBuckets,
		}, []string{"language"}),
		generations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Document generations by language and outcome",
		}, []string{"language", "outcome"}),
		broadcasts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Reload notifications sent to connected clients",
		}),
		clients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Currently connected live-reload clients",
		}),
	}
	reg.MustRegister(pr.generationDuration, pr.generations, pr.broadcasts, pr.clients)
	return pr
}

func (p *PrometheusRecorder) ObserveGeneration(language string, d time.Duration, outcome Outcome) {
	if p == nil {
		return
	}
	p.generationDuration.WithLabelValues(language).Observe(d.Seconds())
	p.generations.WithLabelValues(language, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncBroadcast() {
	if p == nil {
		return
	}
	p.broadcasts.Inc()
}

func (p *PrometheusRecorder) SetClients(n int) {
	if p == nil {
		return
	}
	p.clients.Set(float64(n))
}
