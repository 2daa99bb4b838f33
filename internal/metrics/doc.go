// Package metrics records compile orchestration metrics.
//
// Sessions and controllers report through the typstlive.Recorder
// interface. NoopRecorder is the default and does nothing; the Prometheus
// recorder is installed by the serve command and exposed on /metrics.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	session := typstlive.NewSession(engine, typstlive.WithRecorder(rec))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
