// Package keylock provides per-key mutual exclusion for in-process serialization
// of operations on the same entity.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker holds one mutex per active key. Entries are released once no goroutine
// holds or waits for them.
type Locker struct {
	mu   sync.Mutex
	keys map[string]*entry
}

// New creates a Locker.
func New() *Locker {
	return &Locker{keys: make(map[string]*entry)}
}

// Lock blocks until key is held and returns the unlock function.
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.keys, key)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of keys currently tracked.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
