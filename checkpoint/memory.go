// Package checkpoint provides thread-state persistence backends for the
// planner. The memory store is the default; the sqlite store survives
// restarts.
package checkpoint

import (
	"sync"
	"time"

	"tripagent/agent"
)

const defaultThreadTTL = 24 * time.Hour

type memoryEntry struct {
	state      *agent.ThreadState
	lastAccess time.Time
}

// MemoryStore is an in-memory checkpointer with TTL-based eviction of
// idle threads. Snapshots are cloned on the way in and out so callers
// never share mutable state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*memoryEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a memory checkpointer and starts its eviction
// loop.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		threads: make(map[string]*memoryEntry),
		ttl:     defaultThreadTTL,
		stop:    make(chan struct{}),
	}
	go ms.evictLoop()
	return ms
}

// Load returns a copy of the stored state, or (nil, nil) for an unknown
// thread.
func (ms *MemoryStore) Load(threadID string) (*agent.ThreadState, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	entry, ok := ms.threads[threadID]
	if !ok {
		return nil, nil
	}
	entry.lastAccess = time.Now()
	return entry.state.Clone(), nil
}

// Save stores a snapshot of the state and refreshes its TTL.
func (ms *MemoryStore) Save(threadID string, state *agent.ThreadState) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.threads[threadID] = &memoryEntry{state: state.Clone(), lastAccess: time.Now()}
	return nil
}

// Len returns the number of stored threads.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.threads)
}

// Close stops the eviction loop.
func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.stop) })
	return nil
}

func (ms *MemoryStore) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ms.evict()
		case <-ms.stop:
			return
		}
	}
}

func (ms *MemoryStore) evict() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cutoff := time.Now().Add(-ms.ttl)
	for id, entry := range ms.threads {
		if entry.lastAccess.Before(cutoff) {
			delete(ms.threads, id)
		}
	}
}
