// Package stores provides concrete cache store implementations
package stores

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/domain/entities/harness"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/caching/interfaces"
)

type memoryEntry struct {
	value     harness.Context
	expiresAt time.Time
}

// MemoryStore keeps contexts in process memory with a fixed TTL.
type MemoryStore struct {
	ttl     time.Duration
	entries map[int64]memoryEntry
	mu      sync.RWMutex
	hits    atomic.Int64
	misses  atomic.Int64
	now     func() time.Time
}

// NewMemoryStore creates an in-memory context cache. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[int64]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) GetContext(_ context.Context, partID int64) (harness.Context, bool) {
	s.mu.RLock()
	entry, ok := s.entries[partID]
	s.mu.RUnlock()

	if !ok || s.expired(entry) {
		s.misses.Add(1)
		return harness.Context{}, false
	}
	s.hits.Add(1)
	return entry.value, true
}

func (s *MemoryStore) SetContext(_ context.Context, partID int64, value harness.Context) {
	s.mu.Lock()
	s.entries[partID] = s.newEntry(value)
	s.mu.Unlock()
}

// FillContext stores value only when the part has no live entry.
func (s *MemoryStore) FillContext(_ context.Context, partID int64, value harness.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[partID]; ok && !s.expired(entry) {
		return false
	}
	s.entries[partID] = s.newEntry(value)
	return true
}

func (s *MemoryStore) InvalidatePart(_ context.Context, partID int64) {
	s.mu.Lock()
	delete(s.entries, partID)
	s.mu.Unlock()
}

func (s *MemoryStore) InvalidateAll(_ context.Context) {
	s.mu.Lock()
	s.entries = make(map[int64]memoryEntry)
	s.mu.Unlock()
}

// PurgeExpired drops expired entries and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Stats() interfaces.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return interfaces.Stats{
		Backend: "memory",
		Entries: len(s.entries),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}

func (s *MemoryStore) newEntry(value harness.Context) memoryEntry {
	entry := memoryEntry{value: value}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	return entry
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}
