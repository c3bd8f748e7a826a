package vaultshot

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

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ExporterPool manages a pool of Exporter instances for parallel processing.
// Each exporter has its own browser instance, enabling true parallelism.
// Exporters are created lazily on first acquire to avoid startup delay.
// All pooled exporters write to the same store and share one PathLocker.
type ExporterPool struct {
	size      int
	store     Store
	opts      []Option
	locker    *PathLocker
	exporters []*Exporter
	sem       chan *Exporter
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewExporterPool creates a pool with capacity for n Exporter instances
// writing to store. opts are applied to every exporter the pool creates.
// Exporters are created lazily when acquired, not at pool creation.
func NewExporterPool(n int, store Store, opts ...Option) *ExporterPool {
	if n < 1 {
		n = 1
	}

	return &ExporterPool{
		size:      n,
		store:     store,
		opts:      opts,
		locker:    NewPathLocker(),
		exporters: make([]*Exporter, 0, n),
		sem:       make(chan *Exporter, n),
	}
}

// Acquire gets an exporter from the pool, creating one if needed.
// Blocks if all exporters are in use.
func (p *ExporterPool) Acquire() *Exporter {
	// Try to get an existing exporter (non-blocking)
	select {
	case exp := <-p.sem:
		return exp
	default:
	}

	// Check if we can create a new exporter
	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new exporter outside the lock
		opts := append([]Option{WithPathLocker(p.locker)}, p.opts...)
		exp := NewExporter(p.store, opts...)

		p.mu.Lock()
		p.exporters = append(p.exporters, exp)
		p.mu.Unlock()

		return exp
	}
	p.mu.Unlock()

	// All exporters created, wait for one to be released
	return <-p.sem
}

// Release returns an exporter to the pool. After Close it is a no-op.
// The send happens under the lock so it cannot race Close; sem holds one
// slot per exporter the pool can create, so it never blocks.
func (p *ExporterPool) Release(exp *Exporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- exp
}

// Close releases all browser resources.
// Returns an aggregated error if multiple exporters fail to close.
func (p *ExporterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.mu.Unlock()

	var errs []error
	for _, exp := range exporters {
		if err := exp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExporterPool) Size() int {
	return p.size
}

// Locker returns the PathLocker shared by the pooled exporters.
func (p *ExporterPool) Locker() *PathLocker {
	return p.locker
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
