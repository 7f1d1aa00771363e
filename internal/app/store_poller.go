package app

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	mcpserver "passbook/internal/mcp"
	"passbook/internal/service"
)

// storePoller polls the SQLite database for changes made by another process
// (e.g. the standalone MCP server), reloading the credential list when the
// stored value changes and forwarding pending MCP approvals to the frontend.
type storePoller struct {
	db       *sql.DB
	emitter  service.EventEmitter
	interval time.Duration

	// fingerprint returns a value that changes whenever the stored list does.
	// nil when the active backend is not SQLite-backed.
	fingerprint func(ctx context.Context) (int64, error)
	reload      func(ctx context.Context)

	mu      sync.Mutex
	last    int64
	primed  bool
	stopCh  chan struct{}
	stopped sync.WaitGroup
	// Track emitted approval IDs to avoid infinite re-emission
	emittedApprovals map[string]bool
}

func newStorePoller(db *sql.DB, emitter service.EventEmitter, interval time.Duration) *storePoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &storePoller{
		db:               db,
		emitter:          emitter,
		interval:         interval,
		emittedApprovals: map[string]bool{},
	}
}

// watchCredentials enables reload-on-change for the SQLite backend.
func (p *storePoller) watchCredentials(fingerprint func(ctx context.Context) (int64, error), reload func(ctx context.Context)) {
	p.fingerprint = fingerprint
	p.reload = reload
}

// Start begins the polling loop. Should be called once on app startup.
func (p *storePoller) Start(ctx context.Context) {
	p.stopCh = make(chan struct{})
	p.stopped.Add(1)
	go p.pollLoop(ctx)
}

// Stop terminates the polling loop and waits for it to exit.
func (p *storePoller) Stop() {
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopped.Wait()
		p.stopCh = nil
	}
}

func (p *storePoller) pollLoop(ctx context.Context) {
	defer p.stopped.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.check(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *storePoller) check(ctx context.Context) {
	p.checkCredentials(ctx)
	p.checkApprovals(ctx)
}

// checkCredentials reloads when the stored value's updated_at moved.
// The first observation only primes the fingerprint.
func (p *storePoller) checkCredentials(ctx context.Context) {
	if p.fingerprint == nil {
		return
	}
	fp, err := p.fingerprint(ctx)
	if err != nil {
		log.Printf("store poller: fingerprint: %v", err)
		return
	}

	p.mu.Lock()
	changed := p.primed && fp != p.last
	p.last = fp
	p.primed = true
	p.mu.Unlock()

	if changed {
		p.reload(ctx)
	}
}

// checkApprovals forwards each pending cross-process approval once.
func (p *storePoller) checkApprovals(ctx context.Context) {
	pending, err := mcpserver.ListPendingInDB(ctx, p.db)
	if err != nil {
		log.Printf("store poller: %v", err)
		return
	}

	live := make(map[string]bool, len(pending))
	for _, a := range pending {
		live[a.ID] = true

		p.mu.Lock()
		alreadySent := p.emittedApprovals[a.ID]
		p.emittedApprovals[a.ID] = true
		p.mu.Unlock()

		if !alreadySent {
			p.emitter.Emit(ctx, mcpserver.EventApprovalRequired, a)
		}
	}

	// Clean up tracking for resolved/deleted approvals (standalone MCP deletes after reading)
	p.mu.Lock()
	for id := range p.emittedApprovals {
		if !live[id] {
			delete(p.emittedApprovals, id)
			p.emitter.Emit(ctx, mcpserver.EventApprovalDismissed, map[string]string{"id": id})
		}
	}
	p.mu.Unlock()
}
