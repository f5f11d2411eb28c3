// Package latest enforces "last request wins" for concurrent loads keyed by an
// identifier such as a project ID. A slow response that started before a newer
// request for the same key is detected and dropped instead of overwriting the
// newer result.
package latest

import "sync"

// Ticket identifies one request for a key.
type Ticket struct {
	key string
	gen uint64
}

// Tracker hands out tickets and remembers the newest one per key.
type Tracker struct {
	mu      sync.Mutex
	current map[string]uint64
	next    uint64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{current: make(map[string]uint64)}
}

// Begin registers a new request for key. Any earlier ticket for the same key
// becomes stale.
func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.current[key] = t.next
	return Ticket{key: key, gen: t.next}
}

// IsCurrent reports whether the ticket is still the newest for its key.
func (t *Tracker) IsCurrent(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current[tk.key] == tk.gen
}

// Apply runs fn only if tk is still current, holding the tracker lock so a newer
// Begin cannot interleave between the check and the write. It reports whether fn ran.
func (t *Tracker) Apply(tk Ticket, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current[tk.key] != tk.gen {
		return false
	}
	fn()
	return true
}

// Forget drops the key once no request is outstanding.
func (t *Tracker) Forget(tk Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current[tk.key] == tk.gen {
		delete(t.current, tk.key)
	}
}
