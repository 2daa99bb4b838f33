package typstlive

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitTimeout bounds every wait in tests.
const waitTimeout = 5 * time.Second

// fakeEngine counts loads and can hold them until release is closed.
type fakeEngine struct {
	loads   atomic.Int32
	release chan struct{} // nil = load immediately
	loadErr error
	compile CompileFunc
}

func (f *fakeEngine) Load(ctx context.Context) (CompileFunc, error) {
	f.loads.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.compile, nil
}

type compileResult struct {
	out []byte
	err error
}

// gatedCompiler blocks each compile until the test finishes it, keyed by
// source text. Sources must be unique within a test.
type gatedCompiler struct {
	mu      sync.Mutex
	pending map[string]chan compileResult
	started chan string
}

func newGatedCompiler() *gatedCompiler {
	return &gatedCompiler{
		pending: make(map[string]chan compileResult),
		started: make(chan string, 64),
	}
}

func (g *gatedCompiler) chanFor(source string) chan compileResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.pending[source]
	if !ok {
		ch = make(chan compileResult, 1)
		g.pending[source] = ch
	}
	return ch
}

func (g *gatedCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	ch := g.chanFor(source)
	g.started <- source
	select {
	case r := <-ch:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// finish settles the compile of source, now or as soon as it starts.
func (g *gatedCompiler) finish(source, out string, err error) {
	g.chanFor(source) <- compileResult{out: []byte(out), err: err}
}

// awaitStarted blocks until the compile of source has reached the engine.
func (g *gatedCompiler) awaitStarted(t *testing.T, source string) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-g.started:
			if s == source {
				return
			}
		case <-deadline:
			t.Fatalf("compile of %q never started", source)
		}
	}
}

// fakeRecorder counts Recorder events.
type fakeRecorder struct {
	mu         sync.Mutex
	loads      map[string]int
	compiles   map[string]int
	superseded atomic.Int32
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{loads: map[string]int{}, compiles: map[string]int{}}
}

func (r *fakeRecorder) SessionLoaded(outcome string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads[outcome]++
}

func (r *fakeRecorder) CompileSettled(outcome string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compiles[outcome]++
}

func (r *fakeRecorder) CompileSuperseded() { r.superseded.Add(1) }

func (r *fakeRecorder) compileCount(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compiles[outcome]
}

// readySession returns an initialized session over fn.
func readySession(t *testing.T, fn CompileFunc, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession(&fakeEngine{compile: fn}, opts...)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return s
}

// waitFor polls the controller until cond holds.
func waitFor(t *testing.T, c *Controller, what string, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for {
		snap := c.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last snapshot: %+v", what, snap)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// stubCompiler is a minimal Compiler whose state the test sets directly.
type stubCompiler struct {
	mu    sync.Mutex
	state SessionState
	err   error
	ready chan struct{}
	fn    func(ctx context.Context, text string) (string, error)
}

func newStubCompiler(state SessionState, err error) *stubCompiler {
	ready := make(chan struct{})
	if state == StateReady || state == StateInitFailed {
		close(ready)
	}
	return &stubCompiler{state: state, err: err, ready: ready}
}

func (s *stubCompiler) Start()                 {}
func (s *stubCompiler) Ready() <-chan struct{} { return s.ready }

func (s *stubCompiler) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubCompiler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubCompiler) Compile(ctx context.Context, text string) (string, error) {
	if s.fn == nil {
		return "", ErrEngineUnavailable
	}
	return s.fn(ctx, text)
}
