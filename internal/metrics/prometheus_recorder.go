package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "typstlive"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	sessionInit     *prom.CounterVec
	sessionDuration prom.Histogram
	compiles        *prom.CounterVec
	compileDuration prom.Histogram
	superseded      prom.Counter
	activePreviews  prom.Gauge
	rasters         *prom.CounterVec
	rasterDuration  prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		sessionInit: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "session_init_total",
			Help:      "Compiler session loads by outcome",
		}, []string{"outcome"}),
		sessionDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "session_init_duration_seconds",
			Help:      "Time to load the compiler engine",
			Buckets:   prom.DefBuckets,
		}),
		compiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Compile calls by outcome",
		}, []string{"outcome"}),
		compileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of individual compile calls",
			Buckets:   prom.DefBuckets,
		}),
		superseded: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_total",
			Help:      "Compile results discarded because a newer request was issued",
		}),
		activePreviews: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "previews_active",
			Help:      "Preview controllers currently held by the server",
		}),
		rasters: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rasterizations_total",
			Help:      "SVG to PNG rasterizations by outcome",
		}, []string{"outcome"}),
		rasterDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rasterization_duration_seconds",
			Help:      "Duration of SVG to PNG rasterizations",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(
		pr.sessionInit, pr.sessionDuration,
		pr.compiles, pr.compileDuration,
		pr.superseded, pr.activePreviews,
		pr.rasters, pr.rasterDuration,
	)
	return pr
}

func (p *PrometheusRecorder) SessionLoaded(outcome string, seconds float64) {
	if p == nil {
		return
	}
	p.sessionInit.WithLabelValues(outcome).Inc()
	p.sessionDuration.Observe(seconds)
}

func (p *PrometheusRecorder) CompileSettled(outcome string, seconds float64) {
	if p == nil {
		return
	}
	p.compiles.WithLabelValues(outcome).Inc()
	p.compileDuration.Observe(seconds)
}

func (p *PrometheusRecorder) CompileSuperseded() {
	if p == nil {
		return
	}
	p.superseded.Inc()
}

func (p *PrometheusRecorder) SetActivePreviews(n int) {
	if p == nil {
		return
	}
	p.activePreviews.Set(float64(n))
}

func (p *PrometheusRecorder) RasterSettled(outcome string, seconds float64) {
	if p == nil {
		return
	}
	p.rasters.WithLabelValues(outcome).Inc()
	p.rasterDuration.Observe(seconds)
}
