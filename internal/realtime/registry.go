package realtime

import (
	"io"
	"sync"
)

// Registry tracks the live subscription per user. A Bridge owns one; there
// is no package-level connection state.
type Registry struct {
	mu    sync.Mutex
	conns map[int64]io.Closer
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]io.Closer)}
}

// Swap installs c for userID and returns the subscription it replaced
func (r *Registry) Swap(userID int64, c io.Closer) io.Closer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	r.conns[userID] = c
	return prev
}

// Drop removes and returns the subscription for userID
func (r *Registry) Drop(userID int64) io.Closer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[userID]
	delete(r.conns, userID)
	return prev
}

// Release removes c only if it is still the current subscription
func (r *Registry) Release(userID int64, c io.Closer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] != c {
		return false
	}
	delete(r.conns, userID)
	return true
}

func (r *Registry) Active(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.conns[userID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
