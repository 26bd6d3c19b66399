package cooldown

import (
	"context"
	"sync"
	"time"
)

// UpdateFunc receives the current entry (found=false when absent) and returns
// the entry to store. Returning write=false leaves the store untouched.
type UpdateFunc func(current Entry, found bool) (next Entry, write bool)

// Store holds cooldown entries. Update must run fn atomically for the key,
// with no other Update or Sweep interleaving on it.
type Store interface {
	Update(ctx context.Context, key Key, fn UpdateFunc) error
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
}

// MemoryStore is a process-local Store. One mutex covers both the
// read-modify-write in Update and Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (s *MemoryStore) Update(_ context.Context, key Key, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[key]
	next, write := fn(cur, ok)
	if write {
		s.entries[key] = next
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Sweep deletes every entry whose window closed at or before now and returns
// how many were removed.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// Snapshot copies every entry.
func (s *MemoryStore) Snapshot() map[Key]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Key]Entry, len(s.entries))
	for k, e := range s.entries {
		out[k] = e
	}
	return out
}

// Restore loads entries still open at now, replacing existing ones with the
// same key. It returns how many were loaded.
func (s *MemoryStore) Restore(entries map[Key]Entry, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range entries {
		if e.Expired(now) {
			continue
		}
		s.entries[k] = e
		n++
	}
	return n
}
