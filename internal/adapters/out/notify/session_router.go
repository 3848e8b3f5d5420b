package notify

import (
	"maps"
	"slices"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
)

// SessionRouter tracks which users hold a live connection to a realtime
// gateway. The hosting process creates one and hands it to the publisher and
// the HTTP session endpoints.
type SessionRouter struct {
	mu       sync.RWMutex
	sessions map[kernel.UUID]map[kernel.UUID]struct{}
}

func NewSessionRouter() *SessionRouter {
	return &SessionRouter{sessions: make(map[kernel.UUID]map[kernel.UUID]struct{})}
}

// Connect registers a new session for the user and returns its id.
func (r *SessionRouter) Connect(userID kernel.UUID) kernel.UUID {
	sessionID := kernel.NewUUID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[userID] == nil {
		r.sessions[userID] = make(map[kernel.UUID]struct{})
	}
	r.sessions[userID][sessionID] = struct{}{}
	return sessionID
}

// Disconnect reports whether the session was known.
func (r *SessionRouter) Disconnect(userID, sessionID kernel.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[userID]
	if !ok {
		return false
	}
	if _, ok = set[sessionID]; !ok {
		return false
	}

	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.sessions, userID)
	}
	return true
}

func (r *SessionRouter) Online(userID kernel.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions[userID]) > 0
}

func (r *SessionRouter) Sessions(userID kernel.UUID) []kernel.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Collect(maps.Keys(r.sessions[userID]))
}
