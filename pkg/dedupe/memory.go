package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is used when Redis is not configured. Claims are only visible
// to the current process.
type MemoryGuard struct {
	mu       sync.Mutex
	claims   map[string]time.Time
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return newMemoryGuard(ttl, time.Minute)
}

func newMemoryGuard(ttl, cleanupInterval time.Duration) *MemoryGuard {
	g := &MemoryGuard{
		claims: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go g.cleanup(cleanupInterval)

	return g
}

func (g *MemoryGuard) Claim(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if claimedAt, exists := g.claims[key]; exists && now.Sub(claimedAt) < g.ttl {
		return false, nil
	}
	g.claims[key] = now
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.claims, key)
	g.mu.Unlock()
	return nil
}

func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.claims)
}

func (g *MemoryGuard) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.evictExpired()
		case <-g.stopCh:
			return
		}
	}
}

func (g *MemoryGuard) evictExpired() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, claimedAt := range g.claims {
		if now.Sub(claimedAt) >= g.ttl {
			delete(g.claims, key)
		}
	}
}

func (g *MemoryGuard) Stop() {
	g.stopOnce.Do(func() { close(g.stopCh) })
}
