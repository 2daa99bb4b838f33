package metrics

import typstlive "github.com/alnah/go-typstlive"

// Recorder is the full set of metric events. It extends the library's
// Recorder with the server's own gauges.
type Recorder interface {
	typstlive.Recorder
	SetActivePreviews(n int)
	RasterSettled(outcome string, seconds float64)
}

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

func (NoopRecorder) SessionLoaded(string, float64)  {}
func (NoopRecorder) CompileSettled(string, float64) {}
func (NoopRecorder) CompileSuperseded()             {}
func (NoopRecorder) SetActivePreviews(int)          {}
func (NoopRecorder) RasterSettled(string, float64)  {}

// Compile-time interface checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
