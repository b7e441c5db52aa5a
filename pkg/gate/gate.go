// Package gate implements a counting admission primitive used to bound how
// many reconciliation runs (or tool invocations generally) execute
// concurrently against shared downstream connectors. Waiters are strictly
// FIFO: a release re-admits the longest-waiting pending caller.
package gate

import (
	"context"
	"sync"
)

// Gate admits up to N concurrent holders.
type Gate struct {
	mu      sync.Mutex
	free    int
	waiters []chan struct{} // FIFO; closed channel = permit granted
}

// Permit is held by an admitted caller. Release is idempotent: a double
// release is a no-op, not a double-count.
type Permit struct {
	g    *Gate
	once sync.Once
}

// New creates a gate with n permits. n < 1 is treated as 1.
func New(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{free: n}
}

// Acquire blocks until a permit is available or ctx is cancelled. On
// cancellation the caller holds nothing; a permit granted concurrently
// with cancellation is passed on to the next waiter.
func (g *Gate) Acquire(ctx context.Context) (*Permit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.free > 0 && len(g.waiters) == 0 {
		g.free--
		g.mu.Unlock()
		return &Permit{g: g}, nil
	}
	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	select {
	case <-ch:
		return &Permit{g: g}, nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.waiters {
			if w == ch {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				g.mu.Unlock()
				return nil, ctx.Err()
			}
		}
		g.mu.Unlock()
		// Already granted in the race window; hand the permit along so it
		// is not lost.
		g.release()
		return nil, ctx.Err()
	}
}

// Release returns the permit to the gate, waking the oldest waiter if any.
func (p *Permit) Release() {
	p.once.Do(p.g.release)
}

func (g *Gate) release() {
	g.mu.Lock()
	if len(g.waiters) > 0 {
		ch := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.mu.Unlock()
		close(ch)
		return
	}
	g.free++
	g.mu.Unlock()
}

// Available returns the number of immediately grantable permits.
func (g *Gate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.waiters) > 0 {
		return 0
	}
	return g.free
}
