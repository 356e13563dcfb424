package handlers

import "sync"

// threadLocks serializes turns per thread id: a new turn for a thread
// must not start while a prior turn for the same thread is in flight,
// or the checkpointed message sequence could interleave.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for a thread id and returns its unlock func.
func (t *threadLocks) lock(threadID string) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[string]*sync.Mutex)
	}
	l, ok := t.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[threadID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
