// Package handles maps opaque 64-bit handles to live sessions so that
// native references never cross the C boundary.
package handles

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/embedkit/probelink/internal/probe"
)

// ErrNotFound is returned for handles that were never issued or have
// already been closed.
var ErrNotFound = errors.New("invalid session handle")

// Entry wraps one registered session. Operations on the same entry
// serialize on its lock; operations on different entries proceed
// independently.
type Entry struct {
	mu   sync.Mutex
	sess probe.Session
}

// Do runs fn with exclusive access to the session. It returns
// ErrNotFound if the entry was closed between resolution and the lock
// being acquired.
func (e *Entry) Do(fn func(probe.Session)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ErrNotFound
	}
	fn(e.sess)
	return nil
}

// Registry issues handles and resolves them back to sessions. The
// directory lock is held only for lookup, insert and remove, never
// across a hardware operation.
type Registry struct {
	next    atomic.Uint64
	mu      sync.Mutex
	entries map[uint64]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[uint64]*Entry)}
}

// Open registers sess and returns its handle. Handles start at 1,
// grow monotonically and are never reused; 0 is reserved to mean "no
// session".
func (r *Registry) Open(sess probe.Session) uint64 {
	h := r.next.Add(1)
	r.mu.Lock()
	r.entries[h] = &Entry{sess: sess}
	r.mu.Unlock()
	return h
}

// Resolve returns the entry for h.
func (r *Registry) Resolve(h uint64) (*Entry, error) {
	r.mu.Lock()
	e, ok := r.entries[h]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Close removes h from the registry and closes the underlying session
// once any in-flight operation holding the entry has released it.
func (r *Registry) Close(h uint64) error {
	r.mu.Lock()
	e, ok := r.entries[h]
	delete(r.entries, h)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil {
		e.sess.Close()
		e.sess = nil
	}
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
