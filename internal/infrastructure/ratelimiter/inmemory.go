package ratelimiter

import (
	"sync"
	"time"
)

type inMemoryEntry struct {
	value     int
	expiresAt time.Time
}

// InMemory is a single-process GetterSetter. Expired keys are swept every
// sweepInterval until Close.
type InMemory struct {
	entries       map[string]inMemoryEntry
	now           func() time.Time
	sweepInterval time.Duration
	mu            sync.RWMutex
	stop          chan struct{}
	stopOnce      sync.Once
}

func NewInMemory() *InMemory {
	return newInMemory(time.Now, time.Minute)
}

func newInMemory(now func() time.Time, sweepInterval time.Duration) *InMemory {
	im := &InMemory{
		entries:       make(map[string]inMemoryEntry),
		now:           now,
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}

	go im.sweep()

	return im
}

func (i *InMemory) Get(key string) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	entry, ok := i.entries[key]
	if !ok || i.expired(entry, i.now()) {
		return 0, ErrCacheMiss
	}

	return entry.value, nil
}

func (i *InMemory) Set(key string, value int) error {
	return i.SetWithExpiration(key, value, 0)
}

func (i *InMemory) SetWithExpiration(key string, value int, expiration time.Duration) error {
	entry := inMemoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = i.now().Add(expiration)
	}

	i.mu.Lock()
	i.entries[key] = entry
	i.mu.Unlock()

	return nil
}

func (i *InMemory) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func (i *InMemory) expired(entry inMemoryEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && now.After(entry.expiresAt)
}

func (i *InMemory) sweep() {
	ticker := time.NewTicker(i.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.removeExpired()
		case <-i.stop:
			return
		}
	}
}

func (i *InMemory) removeExpired() {
	now := i.now()

	i.mu.Lock()
	defer i.mu.Unlock()

	for key, entry := range i.entries {
		if i.expired(entry, now) {
			delete(i.entries, key)
		}
	}
}

func (i *InMemory) Close() error {
	i.stopOnce.Do(func() {
		close(i.stop)
	})
	return nil
}
