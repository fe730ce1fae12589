// Package assetgc reconciles the on-disk asset tree with catalog
// deletions. Jobs are fire-and-forget: the delete that triggered them has
// already been acknowledged, so failures here leave orphaned files at
// worst, never an inconsistent catalog.
package assetgc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/geopod-io/geopod/internal/logger"
	"github.com/geopod-io/geopod/internal/observability"
)

// Kind names a cleanup job variety.
type Kind string

const (
	KindItem        Kind = "item"
	KindCollection  Kind = "collection"
	KindOrphanSweep Kind = "orphan-sweep"
)

// Result reports how a job ended. Production callers drop the channel;
// tests assert on it.
type Result struct {
	Attempts int
	Err      error
}

// Backoff is the retry policy for collection cleanup. RetryDelay is slept
// before re-checking a removal that claimed success but left the
// directory behind; FailureDelay is slept after a failed removal before
// the child-walk fallback.
type Backoff struct {
	MaxAttempts  int
	RetryDelay   time.Duration
	FailureDelay time.Duration
}

// DefaultBackoff matches the shipped retry ladder: five attempts, 500ms
// re-check delay, 1s failure delay.
func DefaultBackoff() Backoff {
	return Backoff{MaxAttempts: 5, RetryDelay: 500 * time.Millisecond, FailureDelay: time.Second}
}

var errQueueFull = errors.New("cleanup queue full")

type job struct {
	kind         Kind
	collectionID string
	itemID       string
	result       chan Result
}

// Manager owns the asset root and a supervised queue of cleanup jobs.
// The filesystem layout is root/{collection_id}/{item_id}/{asset_key}.
type Manager struct {
	root    string
	backoff Backoff
	clock   Clock
	logger  *slog.Logger

	// removeAll is os.RemoveAll unless a test injects a faulty one.
	removeAll func(path string) error

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func New(root string, backoff Backoff, clock Clock, logger *slog.Logger, queue int) *Manager {
	if queue <= 0 {
		queue = 64
	}
	if backoff.MaxAttempts <= 0 {
		backoff = DefaultBackoff()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Manager{
		root:      root,
		backoff:   backoff,
		clock:     clock,
		logger:    logger,
		removeAll: os.RemoveAll,
		jobs:      make(chan job, queue),
	}
}

// Root returns the asset root directory.
func (m *Manager) Root() string { return m.root }

// Start launches the worker pool.
func (m *Manager) Start(workers int) {
	if workers <= 0 {
		workers = 2
	}
	for range workers {
		m.wg.Add(1)
		go m.worker()
	}
}

// Stop closes the queue and waits for in-flight jobs. Queued jobs still
// run; jobs are never cancelled once scheduled.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.jobs)
	m.mu.Unlock()
	m.wg.Wait()
}

// ScheduleItemCleanup removes an item's asset directory and, when the
// parent collection directory becomes empty, the parent too.
func (m *Manager) ScheduleItemCleanup(collectionID, itemID string) <-chan Result {
	return m.schedule(job{kind: KindItem, collectionID: collectionID, itemID: itemID})
}

// ScheduleCollectionCleanup removes a collection's whole asset tree with
// the configured retry budget.
func (m *Manager) ScheduleCollectionCleanup(collectionID string) <-chan Result {
	return m.schedule(job{kind: KindCollection, collectionID: collectionID})
}

// ScheduleOrphanSweep removes empty immediate subdirectories of the asset
// root. It is a pure emptiness check: the catalog is never consulted, so
// a directory for a live collection with no uploads yet is fair game.
func (m *Manager) ScheduleOrphanSweep() <-chan Result {
	return m.schedule(job{kind: KindOrphanSweep})
}

func (m *Manager) schedule(j job) <-chan Result {
	j.result = make(chan Result, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		j.result <- Result{Err: errors.New("cleanup manager stopped")}
		return j.result
	}
	select {
	case m.jobs <- j:
	default:
		m.logger.Warn("cleanup queue full, dropping job",
			"kind", string(j.kind), "collection", j.collectionID, "item", j.itemID)
		j.result <- Result{Err: errQueueFull}
	}
	return j.result
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for j := range m.jobs {
		ctx := logger.WithJobID(context.Background(), logger.NewID())
		ctx = logger.WithComponent(ctx, "assetgc")

		var res Result
		switch j.kind {
		case KindItem:
			res = m.cleanupItem(ctx, j.collectionID, j.itemID)
		case KindCollection:
			res = m.cleanupCollection(ctx, j.collectionID)
		case KindOrphanSweep:
			res = m.sweepOrphans(ctx)
		}
		observability.ObserveCleanupJob(string(j.kind), res.Err)
		if res.Err != nil {
			m.logger.ErrorContext(ctx, "cleanup job failed",
				"kind", string(j.kind), "collection", j.collectionID,
				"item", j.itemID, "attempts", res.Attempts, "err", res.Err)
		}
		j.result <- res
	}
}

// cleanupItem is single-attempt: remove the item tree, then the parent
// collection directory when nothing else lives in it.
func (m *Manager) cleanupItem(ctx context.Context, collectionID, itemID string) Result {
	observability.IncCleanupAttempt(string(KindItem))
	dir := filepath.Join(m.root, collectionID, itemID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return Result{Attempts: 1}
	}
	if err := m.removeAll(dir); err != nil {
		return Result{Attempts: 1, Err: fmt.Errorf("remove item assets %s: %w", dir, err)}
	}

	parent := filepath.Join(m.root, collectionID)
	entries, err := os.ReadDir(parent)
	if err == nil && len(entries) == 0 {
		if err := os.Remove(parent); err != nil {
			m.logger.WarnContext(ctx, "could not remove empty collection directory",
				"dir", parent, "err", err)
		}
	}
	return Result{Attempts: 1}
}

func (m *Manager) cleanupCollection(ctx context.Context, collectionID string) Result {
	dir := filepath.Join(m.root, collectionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return Result{}
	}

	var lastErr error
	for attempt := 1; attempt <= m.backoff.MaxAttempts; attempt++ {
		observability.IncCleanupAttempt(string(KindCollection))

		err := m.removeAll(dir)
		if err == nil {
			// verify it is actually gone before declaring victory
			if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
				return Result{Attempts: attempt}
			}
			lastErr = fmt.Errorf("directory %s still present after removal", dir)
			if attempt < m.backoff.MaxAttempts {
				m.clock.Sleep(m.backoff.RetryDelay)
			}
			continue
		}

		lastErr = fmt.Errorf("remove collection assets %s: %w", dir, err)
		m.logger.WarnContext(ctx, "collection cleanup attempt failed",
			"dir", dir, "attempt", attempt, "err", err)
		if attempt < m.backoff.MaxAttempts {
			m.clock.Sleep(m.backoff.FailureDelay)
			// whole-tree removal keeps failing; pick off children
			// individually before the next attempt
			m.removeChildren(ctx, dir)
			m.clock.Sleep(m.backoff.RetryDelay)
		}
	}
	return Result{Attempts: m.backoff.MaxAttempts, Err: lastErr}
}

func (m *Manager) removeChildren(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := m.removeAll(p); err != nil {
			m.logger.WarnContext(ctx, "could not remove child during fallback", "path", p, "err", err)
		}
	}
}

func (m *Manager) sweepOrphans(ctx context.Context) Result {
	observability.IncCleanupAttempt(string(KindOrphanSweep))
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Attempts: 1}
		}
		return Result{Attempts: 1, Err: fmt.Errorf("read asset root %s: %w", m.root, err)}
	}

	var firstErr error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(m.root, e.Name())
		children, err := os.ReadDir(p)
		if err != nil || len(children) > 0 {
			continue
		}
		if err := os.Remove(p); err != nil {
			m.logger.WarnContext(ctx, "could not remove empty directory", "dir", p, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return Result{Attempts: 1, Err: firstErr}
}
