package session

import (
	"sync"
	"time"
)

// Registry tracks live call sessions by ID. State lives here only for the
// lifetime of the call; finished calls move to the store.
type Registry struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

func NewRegistry() *Registry {
	return &Registry{calls: map[string]*Call{}}
}

func (r *Registry) Add(c *Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID()] = c
}

func (r *Registry) Get(id string) (*Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	return c, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, id)
}

// RemoveAfter drops the session once the closing delay has passed, so the
// console can show its call-ended message first.
func (r *Registry) RemoveAfter(id string, delay time.Duration) {
	time.AfterFunc(delay, func() { r.Remove(id) })
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}
