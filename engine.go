package typstlive

import "context"

// CompileFunc compiles one self-contained Typst source to SVG markup.
// A rejected input is reported as an error in the engine's own shape.
type CompileFunc func(ctx context.Context, source string) ([]byte, error)

// Engine is the external compiler boundary. Load may be slow (binary
// discovery, downloads) and is called at most once per Session.
type Engine interface {
	Load(ctx context.Context) (CompileFunc, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context) (CompileFunc, error)

// Load calls f(ctx).
func (f EngineFunc) Load(ctx context.Context) (CompileFunc, error) {
	return f(ctx)
}

// Recorder receives orchestration events. Implementations must be safe for
// concurrent use; see internal/metrics for the Prometheus one.
type Recorder interface {
	SessionLoaded(outcome string, seconds float64)
	CompileSettled(outcome string, seconds float64)
	CompileSuperseded()
}

// Outcome labels passed to Recorder.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeMalformed = "malformed"
)

// noopRecorder is the default Recorder.
type noopRecorder struct{}

func (noopRecorder) SessionLoaded(string, float64)  {}
func (noopRecorder) CompileSettled(string, float64) {}
func (noopRecorder) CompileSuperseded()             {}
