package testcase

import (
	"sync"
	"time"
)

// Registry tracks the open form sessions of a server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers s under its ID, replacing any previous session with that ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[s.ID()]; ok && old != s {
		old.Close()
	}
	r.sessions[s.ID()] = s
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets a session. It reports whether one was found.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops closed sessions and closes the ones idle longer than maxIdle.
// It returns the number of sessions removed.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.Closed() || (maxIdle > 0 && s.IdleFor(now) > maxIdle) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		customLog.Debugf("Testcase: swept %d form sessions", len(expired))
	}
	return len(expired)
}
