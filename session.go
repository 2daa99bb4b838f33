package typstlive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/go-typstlive/internal/hints"
)

// SessionState is the lifecycle state of a compiler session.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateLoading
	StateReady
	StateInitFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateInitFailed:
		return "init-failed"
	}
	return "unknown"
}

// Compiler is the view of a Session that a Controller depends on.
type Compiler interface {
	Start()
	Ready() <-chan struct{}
	State() SessionState
	Err() error
	Compile(ctx context.Context, text string) (string, error)
}

// Compile-time interface implementation check.
var _ Compiler = (*Session)(nil)

// Session owns one engine instance and its load lifecycle:
// uninitialized -> loading -> {ready | init-failed}.
// The load happens at most once; init-failed is terminal, build a new
// Session to retry. All methods are safe for concurrent use.
type Session struct {
	engine   Engine
	logger   *slog.Logger
	recorder Recorder
	timeout  time.Duration

	// life bounds the engine load; Close cancels it.
	life   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   SessionState
	compile CompileFunc
	initErr error
	closed  bool
	settled bool
	done    chan struct{} // closed when loading settles or the session closes
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCompileTimeout bounds every Compile call. Zero, the default, means
// no timeout: a hung engine keeps its request pending.
func WithCompileTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewSession creates an uninitialized session around engine.
// Nothing is loaded until Start, Initialize or a Controller mount.
func NewSession(engine Engine, opts ...SessionOption) *Session {
	life, cancel := context.WithCancel(context.Background())
	s := &Session{
		engine:   engine,
		logger:   slog.New(slog.DiscardHandler),
		recorder: noopRecorder{},
		life:     life,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start triggers the engine load if it has not started yet and returns
// immediately. Repeated and concurrent calls share the same load.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized || s.closed {
		return
	}
	s.state = StateLoading
	s.logger.Debug("compiler session loading")
	go s.load()
}

// load runs exactly once per session, on the session's own context so a
// cancelled first caller does not poison the shared result.
func (s *Session) load() {
	start := time.Now()

	fn, err := s.safeLoad()
	if err == nil && fn == nil {
		err = errors.New("engine returned no compile function")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.state = StateInitFailed
		s.initErr = fmt.Errorf("%w: %v", ErrEngineInitFailed, err)
		s.recorder.SessionLoaded(OutcomeFailure, time.Since(start).Seconds())
		s.logger.Error("compiler session failed to initialize", "error", err)
	} else {
		s.state = StateReady
		s.compile = fn
		s.recorder.SessionLoaded(OutcomeSuccess, time.Since(start).Seconds())
		s.logger.Debug("compiler session ready", "duration", time.Since(start))
	}
	s.settled = true
	close(s.done)
	s.mu.Unlock()
}

// safeLoad recovers from engine panics so they surface as init failures.
func (s *Session) safeLoad() (fn CompileFunc, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panicked: %v", r)
		}
	}()
	if s.engine == nil {
		return nil, errors.New("no engine configured")
	}
	return s.engine.Load(s.life)
}

// Initialize starts the load if needed and waits for it to settle.
// It returns nil once ready, the init error on failure, or ctx.Err() if the
// caller stops waiting first (the load itself keeps going).
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	s.Start()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.initErr
}

// Ready returns a channel closed once the load has settled, ready or
// failed, or once the session is closed.
func (s *Session) Ready() <-chan struct{} {
	return s.done
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the init failure, wrapping ErrEngineInitFailed, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initErr
}

// Compile runs text through the engine and returns validated SVG markup.
// The engine call itself is made without holding the session lock, so
// concurrent compiles overlap freely.
func (s *Session) Compile(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	fn, state, closed := s.compile, s.state, s.closed
	s.mu.Unlock()

	if closed {
		return "", fmt.Errorf("%w: %w", ErrEngineUnavailable, ErrSessionClosed)
	}
	if state != StateReady || fn == nil {
		return "", fmt.Errorf("%w: session is %s", ErrEngineUnavailable, state)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := callEngine(ctx, fn, text)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		// A killed subprocess reports its signal, not the context error.
		if ctxErr := ctx.Err(); ctxErr != nil {
			if s.timeout > 0 && errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", fmt.Errorf("compile exceeded %s: %w%s", s.timeout, ctxErr, hints.ForTimeout())
			}
			return "", ctxErr
		}
		s.recorder.CompileSettled(OutcomeFailure, elapsed)
		return "", &CompileError{Raw: err}
	}

	if err := ValidateSVG(out); err != nil {
		s.recorder.CompileSettled(OutcomeMalformed, elapsed)
		return "", err
	}

	s.recorder.CompileSettled(OutcomeSuccess, elapsed)
	return string(out), nil
}

// callEngine converts engine panics into ordinary compile failures.
func callEngine(ctx context.Context, fn CompileFunc, text string) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panicked: %v", r)
		}
	}()
	return fn(ctx, text)
}

// Close tears the session down. Pending loads are cancelled and later
// Compile calls fail with ErrEngineUnavailable.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.compile = nil
	s.state = StateUninitialized
	if !s.settled {
		s.settled = true
		close(s.done)
	}
	s.mu.Unlock()

	s.cancel()
	s.logger.Debug("compiler session closed")
	return nil
}
