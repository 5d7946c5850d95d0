package noteprint

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one printer is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 4

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// PrinterPool manages a pool of Printer instances for parallel rendering.
// Each printer has its own browser instance, so previews render in
// parallel; actual device sends still serialize on the transport lock.
// Printers are created lazily on first acquire to avoid startup delay.
type PrinterPool struct {
	size     int
	opts     []Option
	printers []*Printer
	sem      chan *Printer
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewPrinterPool creates a pool with capacity for n Printer instances,
// each configured with the given options.
func NewPrinterPool(n int, opts ...Option) *PrinterPool {
	if n < 1 {
		n = 1
	}

	return &PrinterPool{
		size: n,
		opts: opts,
		sem:  make(chan *Printer, n),
	}
}

// Acquire gets a printer from the pool, creating one if needed.
// Blocks if all printers are in use. Returns ErrPoolClosed after Close.
func (p *PrinterPool) Acquire() (*Printer, error) {
	// Try to get an existing printer (non-blocking)
	select {
	case pr, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return pr, nil
	default:
	}

	// Check if we can create a new printer
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new printer outside the lock
		pr, err := NewPrinter(p.opts...)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.printers = append(p.printers, pr)
		p.mu.Unlock()

		return pr, nil
	}
	p.mu.Unlock()

	// All printers created, wait for one to be released
	pr, ok := <-p.sem
	if !ok {
		return nil, ErrPoolClosed
	}
	return pr, nil
}

// Release returns a printer to the pool. The send happens under the mutex so
// it cannot race Close closing the channel; the channel's capacity equals the
// pool size, so the send never blocks while the lock is held.
func (p *PrinterPool) Release(pr *Printer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- pr
}

// Close releases all browser resources.
// Returns an aggregated error if multiple printers fail to close.
func (p *PrinterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	printers := p.printers
	p.mu.Unlock()

	var errs []error
	for _, pr := range printers {
		if err := pr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *PrinterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size for a server or CLI.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in container deployments.
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
