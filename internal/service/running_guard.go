package service

import (
	"context"
	"sync"
)

// ExportedInflightGuard is an exported alias so _test packages can test the guard.
type ExportedInflightGuard = inflightGuard

// ─────────────────────────────────────────────────────────────
// inflightGuard — rejects a repeated trigger of the same operation
// ─────────────────────────────────────────────────────────────

// inflightGuard ensures only one call per operation name is in flight.
// A second Save while the first is still persisting (a double tap) is
// rejected instead of queued, so it cannot append a duplicate.
type inflightGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock attempts to mark op as running. Returns false if it already is.
func (g *inflightGuard) TryLock(op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[op]; ok {
		return false
	}
	g.running[op] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock marks op as finished. Must be called after TryLock returns true.
func (g *inflightGuard) Unlock(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, op)
	g.wg.Done()
}

// Running reports whether op is in flight.
func (g *inflightGuard) Running(op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[op]
	return ok
}

// WaitAll blocks until all in-flight operations complete or ctx is cancelled.
func (g *inflightGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
