package oauth

import "sync"

// KeyedLock hands out one mutex per key and forgets the key once nobody
// holds or waits on it.
type KeyedLock struct {
	mu      sync.Mutex
	entries map[string]*keyedLockEntry
}

type keyedLockEntry struct {
	mu   sync.Mutex
	refs int
}

// LockHandle is returned by Acquire and must be passed back to Release
// exactly once.
type LockHandle struct {
	key   string
	entry *keyedLockEntry
}

// NewKeyedLock creates an empty lock pool.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{entries: make(map[string]*keyedLockEntry)}
}

// Acquire blocks until the lock for key is held by the caller.
func (l *KeyedLock) Acquire(key string) *LockHandle {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedLockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return &LockHandle{key: key, entry: e}
}

// Release unlocks the handle and drops the pool entry when the last
// reference goes away.
func (l *KeyedLock) Release(h *LockHandle) {
	if h == nil || h.entry == nil {
		return
	}
	e := h.entry
	h.entry = nil
	e.mu.Unlock()

	l.mu.Lock()
	e.refs--
	if e.refs <= 0 && l.entries[h.key] == e {
		delete(l.entries, h.key)
	}
	l.mu.Unlock()
}

// Len reports the number of keys currently held or awaited.
func (l *KeyedLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
