package server

import (
	"container/list"
	"sync"

	"github.com/google/uuid"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/metrics"
)

// preview is one registered controller.
type preview struct {
	id     string
	ctrl   *typstlive.Controller
	static bool // block is read-only by configuration
	subs   int  // attached websocket connections
	elem   *list.Element
}

// registry holds the controllers of rendered widgets. Above max entries
// the oldest is closed; a preview is also dropped when its last websocket
// detaches.
type registry struct {
	mu       sync.Mutex
	max      int
	entries  map[string]*preview
	order    *list.List // oldest at front
	recorder metrics.Recorder
}

func newRegistry(max int, rec metrics.Recorder) *registry {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &registry{
		max:      max,
		entries:  make(map[string]*preview),
		order:    list.New(),
		recorder: rec,
	}
}

// add registers ctrl under a fresh id, evicting the oldest entries when
// the registry is full.
func (r *registry) add(ctrl *typstlive.Controller, static bool) string {
	p := &preview{id: uuid.NewString(), ctrl: ctrl, static: static}

	r.mu.Lock()
	p.elem = r.order.PushBack(p)
	r.entries[p.id] = p
	var evicted []*preview
	for r.max > 0 && len(r.entries) > r.max {
		oldest := r.order.Front().Value.(*preview)
		r.removeLocked(oldest)
		evicted = append(evicted, oldest)
	}
	n := len(r.entries)
	r.mu.Unlock()

	r.recorder.SetActivePreviews(n)
	for _, e := range evicted {
		_ = e.ctrl.Close()
	}
	return p.id
}

func (r *registry) get(id string) (*preview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	return p, ok
}

// attach counts a websocket connection against id.
func (r *registry) attach(id string) (*preview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[id]
	if ok {
		p.subs++
	}
	return p, ok
}

// detach releases a connection; the last one closes the preview.
func (r *registry) detach(id string) {
	r.mu.Lock()
	p, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	p.subs--
	if p.subs > 0 {
		r.mu.Unlock()
		return
	}
	r.removeLocked(p)
	n := len(r.entries)
	r.mu.Unlock()

	r.recorder.SetActivePreviews(n)
	_ = p.ctrl.Close()
}

func (r *registry) removeLocked(p *preview) {
	delete(r.entries, p.id)
	r.order.Remove(p.elem)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// closeAll closes every controller.
func (r *registry) closeAll() {
	r.mu.Lock()
	all := make([]*preview, 0, len(r.entries))
	for _, p := range r.entries {
		all = append(all, p)
	}
	r.entries = make(map[string]*preview)
	r.order.Init()
	r.mu.Unlock()

	r.recorder.SetActivePreviews(0)
	for _, p := range all {
		_ = p.ctrl.Close()
	}
}
