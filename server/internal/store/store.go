package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/holecheck/pkg/types"
)

// Entry is a run together with the time it was stored.
type Entry struct {
	Run      *types.Run
	StoredAt time.Time
}

// Store is a thread-safe in-memory run store, keyed by run ID.
// A background goroutine (Run) periodically evicts entries older than the
// configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests

	// version increases on every change to data.
	version uint64
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the retention window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores or replaces the run under run.ID.
// Callers must not modify run after calling Put.
func (s *Store) Put(run *types.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[run.ID] = &Entry{
		Run:      run,
		StoredAt: s.now(),
	}
	s.version++
}

// Version returns a counter that changes whenever a run is stored or
// evicted. Watchers compare it to skip unchanged state.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Get returns the live entry for id. Entries past the TTL are reported as
// missing even before Evict removes them.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok || !e.StoredAt.After(s.now().Add(-s.ttl)) {
		return nil, false
	}
	return e, true
}

// List returns all live entries, newest first.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.StoredAt.After(cutoff) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StoredAt.Equal(out[j].StoredAt) {
			return out[i].StoredAt.After(out[j].StoredAt)
		}
		return out[i].Run.ID < out[j].Run.ID
	})
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose StoredAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.StoredAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	if removed > 0 {
		s.version++
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale runs", "count", n)
			}
		}
	}
}
