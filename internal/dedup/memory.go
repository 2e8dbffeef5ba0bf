// Package dedup хранит метки "код для этого занятия уже отправлен"
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/smartclass/internal/service"
)

var _ service.OccurrenceGuard = (*MemoryGuard)(nil)

// MemoryGuard метки в памяти процесса; теряются при перезапуске
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]time.Time // key -> истекает в
	now     func() time.Time
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (g *MemoryGuard) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweepLocked(now)

	if _, ok := g.entries[key]; ok {
		return false, nil
	}
	g.entries[key] = now.Add(ttl)
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
	return nil
}

// Len количество живых меток
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepLocked(g.now())
	return len(g.entries)
}

func (g *MemoryGuard) sweepLocked(now time.Time) {
	for key, expiresAt := range g.entries {
		if !now.Before(expiresAt) {
			delete(g.entries, key)
		}
	}
}
