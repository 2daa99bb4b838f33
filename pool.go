package typstlive

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome and typst child processes.
	cpuDivisor = 2
)

// RasterizerPool hands out Rasterizers for parallel PNG export. Each
// rasterizer owns its own browser; they are created lazily on first
// acquire to avoid startup delay when no PNG is requested.
type RasterizerPool struct {
	size    int
	factory func() Rasterizer
	items   []Rasterizer
	sem     chan Rasterizer
	mu      sync.Mutex
	created int
	closed  bool
}

// NewRasterizerPool creates a pool with capacity for n rasterizers built
// by factory. A nil factory builds default RodRasterizers.
func NewRasterizerPool(n int, factory func() Rasterizer) *RasterizerPool {
	if n < 1 {
		n = 1
	}
	if factory == nil {
		factory = func() Rasterizer { return NewRodRasterizer(0, 0) }
	}

	return &RasterizerPool{
		size:    n,
		factory: factory,
		items:   make([]Rasterizer, 0, n),
		sem:     make(chan Rasterizer, n),
	}
}

// Acquire gets a rasterizer from the pool, creating one if needed.
// Blocks if all rasterizers are in use.
func (p *RasterizerPool) Acquire() Rasterizer {
	select {
	case r := <-p.sem:
		return r
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Build outside the lock.
		r := p.factory()

		p.mu.Lock()
		p.items = append(p.items, r)
		p.mu.Unlock()

		return r
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a rasterizer to the pool.
// The lock is released before sending to avoid deadlock when channel is full.
func (p *RasterizerPool) Release(r Rasterizer) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- r
}

// Close releases all browser resources.
// Returns an aggregated error if several rasterizers fail to close.
func (p *RasterizerPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	items := p.items
	p.mu.Unlock()

	var errs []error
	for _, r := range items {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *RasterizerPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the worker count for batch work.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is container-aware once automaxprocs has run.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
