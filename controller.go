package typstlive

import (
	"context"
	"log/slog"
	"sync"
)

// Controller is the per-preview state machine. It owns the editable
// snippet, issues a compile request for every edit, and applies only the
// result of the most recently issued request (last-issued-wins), whatever
// order the engine completes them in.
//
// All methods are safe for concurrent use. OnEdit never blocks on the
// engine: each request compiles on its own goroutine.
type Controller struct {
	session  Compiler
	cfg      PreviewConfig
	logger   *slog.Logger
	recorder Recorder

	// life is passed to every compile; Close cancels it.
	life   context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	snippet       string
	image         string
	diag          *Diagnostic // from the last applied request
	firstDone     bool        // a request has been applied at least once
	initRequested bool        // the initial request has been issued
	issued        uint64      // highest sequence number issued
	applied       uint64
	pending       bool
	closed        bool
	inflight      int
	idle          chan struct{} // closed while inflight == 0
	subs          map[int]chan Snapshot
	nextSub       int
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithPreviewLogger sets the controller logger. The default discards.
func WithPreviewLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPreviewRecorder sets the recorder notified of superseded requests.
func WithPreviewRecorder(r Recorder) ControllerOption {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewController creates a controller for one preview. The session may be
// shared by many controllers; it is not closed by the controller.
func NewController(session Compiler, cfg PreviewConfig, opts ...ControllerOption) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	life, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		session:  session,
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		recorder: noopRecorder{},
		life:     life,
		cancel:   cancel,
		snippet:  cfg.Code,
		idle:     idle,
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mount starts the session load if needed and issues the initial compile
// once the session is ready. If the session fails, subscribers receive a
// snapshot carrying the session diagnostic. Mount returns immediately.
func (c *Controller) Mount(ctx context.Context) {
	c.session.Start()

	// A shared session may already be ready; issue now so the first
	// snapshot is already awaiting a result.
	if ctx.Err() == nil && c.Initialize() {
		return
	}

	c.mu.Lock()
	c.notifyLocked()
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-c.life.Done():
			return
		case <-c.session.Ready():
		}
		if !c.Initialize() {
			c.mu.Lock()
			c.notifyLocked()
			c.mu.Unlock()
		}
	}()
}

// Initialize issues the compile request for the initial snippet. It is a
// no-op, returning false, unless the session is ready, no request has been
// applied yet, and the initial request has not already been issued.
func (c *Controller) Initialize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.firstDone || c.initRequested {
		return false
	}
	if c.session.State() != StateReady {
		return false
	}
	c.initRequested = true
	c.issueLocked()
	return true
}

// OnEdit replaces the snippet and issues a new compile request. It returns
// the request's sequence number without waiting for the engine.
// Returns ErrReadOnly when editing is disabled.
func (c *Controller) OnEdit(text string) (uint64, error) {
	if !c.Editable() {
		return 0, ErrReadOnly
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrReadOnly
	}
	c.snippet = text
	c.initRequested = true
	return c.issueLocked(), nil
}

// Editable reports whether edits are accepted right now. It depends on the
// live session state and is never cached.
func (c *Controller) Editable() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	return c.cfg.Editable && !closed && c.session.State() == StateReady
}

// issueLocked assembles the compilable text and starts request N.
func (c *Controller) issueLocked() uint64 {
	c.issued++
	seq := c.issued
	c.pending = true

	text := c.cfg.Prefix + c.snippet + c.cfg.Suffix

	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++

	c.logger.Debug("compile issued", "seq", seq, "bytes", len(text))
	go c.run(seq, text)

	c.notifyLocked()
	return seq
}

func (c *Controller) run(seq uint64, text string) {
	svg, err := c.session.Compile(c.life, text)
	c.settle(seq, svg, err)
}

// settle applies a result only if seq is still the highest issued.
func (c *Controller) settle(seq uint64, svg string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		c.inflight--
		if c.inflight == 0 {
			close(c.idle)
		}
	}()

	if c.closed {
		return
	}
	if seq != c.issued {
		c.recorder.CompileSuperseded()
		c.logger.Debug("compile superseded", "seq", seq, "latest", c.issued, "error", err)
		return
	}

	c.pending = false
	c.firstDone = true
	c.applied = seq

	if err != nil {
		d := Normalize(err)
		c.diag = &d
		c.logger.Debug("compile failed", "seq", seq, "error", err)
	} else {
		c.image = StripDimensions(svg)
		c.diag = nil
		c.logger.Debug("compile applied", "seq", seq, "bytes", len(c.image))
	}
	c.notifyLocked()
}

// Snapshot returns the current displayed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	state := c.session.State()

	// The applied per-call diagnostic wins over the session one.
	var diag *Diagnostic
	if c.diag != nil {
		d := *c.diag
		diag = &d
	} else if err := c.session.Err(); err != nil {
		d := Normalize(err)
		diag = &d
	}

	return Snapshot{
		Seq:           c.applied,
		Snippet:       c.snippet,
		Image:         c.image,
		Diagnostic:    diag,
		Pending:       c.pending,
		FirstCompiled: c.firstDone,
		SessionState:  state,
		State:         state.String(),
		Editable:      c.cfg.Editable && !c.closed && state == StateReady,
		Fallback:      ResolveAssetPath(c.cfg.Image, c.cfg.AssetsBase),
		Alt:           c.cfg.Alt,
		Layout:        c.cfg.Layout,
	}
}

// Subscribe returns a channel that always holds the latest snapshot.
// Slow readers skip intermediate snapshots, never the last one.
// Call cancel to unsubscribe; Close also closes every channel.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notifyLocked replaces whatever each subscriber has not read yet.
func (c *Controller) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Wait blocks until every issued request has settled or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.inflight == 0 {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// Close unmounts the preview: in-flight compiles are cancelled, their
// results discarded, and subscriber channels closed. The shared session
// is left open.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.cancel()
	return nil
}
