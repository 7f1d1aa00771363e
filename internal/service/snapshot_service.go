package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/robfig/cron/v3"

	"passbook/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Snapshot Service — scheduled copies of the persisted collection
// ─────────────────────────────────────────────────────────────

const (
	snapshotPrefix = "snapshot-"
	snapshotExt    = ".json"
)

// SnapshotService copies the raw persisted value to timestamped files on a
// cron schedule and keeps only the newest ones.
type SnapshotService struct {
	store   domain.KVStore
	key     string
	dir     string
	keep    int
	emitter EventEmitter
	now     func() time.Time

	mu        sync.Mutex
	cronSched *cron.Cron
}

// NewSnapshotService creates a SnapshotService writing to dir.
func NewSnapshotService(store domain.KVStore, key, dir string, keep int, emitter EventEmitter) *SnapshotService {
	if keep < 1 {
		keep = 1
	}
	if emitter == nil {
		emitter = discardEmitter{}
	}
	return &SnapshotService{
		store:   store,
		key:     key,
		dir:     dir,
		keep:    keep,
		emitter: emitter,
		now:     time.Now,
	}
}

// Start schedules snapshots with a standard 5-field cron expression.
func (s *SnapshotService) Start(ctx context.Context, schedule string) error {
	s.Stop()

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.TakeSnapshot(ctx); err != nil {
			log.Printf("snapshot cron: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("snapshot cron: invalid expression %q: %w", schedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cronSched = c
	s.mu.Unlock()

	log.Printf("snapshot cron: scheduled %q into %s", schedule, s.dir)
	return nil
}

// Stop halts the schedule. Safe to call when not started.
func (s *SnapshotService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

// TakeSnapshot writes the current persisted value to a new file and prunes
// old snapshots. It returns "" without error when nothing is stored yet.
func (s *SnapshotService) TakeSnapshot(ctx context.Context) (string, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return "", &domain.PersistenceError{Op: "get", Key: s.key, Err: err}
	}
	if !ok {
		log.Printf("snapshot cron: nothing stored under %q, skipping", s.key)
		return "", nil
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("%s%s-%s%s",
		snapshotPrefix,
		s.now().UTC().Format("20060102T150405.000000000Z"),
		uuid.New().String()[:8],
		snapshotExt,
	)
	path := filepath.Join(s.dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(raw))); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return "", fmt.Errorf("chmod snapshot: %w", err)
	}

	if err := s.prune(); err != nil {
		log.Printf("snapshot cron: prune failed: %v", err)
	}

	s.emitter.Emit(ctx, EventSnapshotCompleted, path)
	return path, nil
}

// ListSnapshots returns snapshot file paths, newest first.
func (s *SnapshotService) ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), snapshotPrefix) || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.dir, n)
	}
	return paths, nil
}

func (s *SnapshotService) prune() error {
	paths, err := s.ListSnapshots()
	if err != nil {
		return err
	}
	if len(paths) <= s.keep {
		return nil
	}
	for _, p := range paths[s.keep:] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
