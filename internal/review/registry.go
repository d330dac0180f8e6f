// Package review hosts accepted-order review sessions behind an HTTP API.
package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("review session not found")

// SessionGauge is told the live session count after every change.
type SessionGauge interface {
	SetReviewSessions(n int)
}

type entry struct {
	session *acceptedorders.Session
	touched time.Time
}

// Registry owns live sessions. Each session is created on view entry and
// discarded on exit or after ttl without use.
type Registry struct {
	store acceptedorders.Store
	ttl   time.Duration
	now   func() time.Time
	gauge SessionGauge

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a registry whose sessions read and write through store.
func NewRegistry(store acceptedorders.Store, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{store: store, ttl: ttl, now: time.Now, sessions: map[string]*entry{}}
}

// SetGauge attaches the live session gauge.
func (r *Registry) SetGauge(gauge SessionGauge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauge = gauge
	r.report()
}

// Open creates a session and loads the collection. A failed load registers nothing.
func (r *Registry) Open(ctx context.Context) (string, *acceptedorders.Session, error) {
	session := acceptedorders.NewSession(r.store)
	if err := session.Refresh(ctx); err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{session: session, touched: r.now()}
	r.report()
	r.mu.Unlock()
	return id, session, nil
}

// Get returns the session with id and marks it used.
func (r *Registry) Get(id string) (*acceptedorders.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.touched = r.now()
	return e.session, nil
}

// Close discards the session with id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.report()
	return nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep discards sessions idle for longer than the ttl and returns how many.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, e := range r.sessions {
		if e.touched.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.report()
	}
	return removed
}

// report must be called with mu held.
func (r *Registry) report() {
	if r.gauge != nil {
		r.gauge.SetReviewSessions(len(r.sessions))
	}
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
