package app

import (
	"sort"
	"sync"
	"time"

	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/internal/errors"
)

// SessionManager keeps exploration sessions in memory
type SessionManager struct {
	mu       sync.Mutex
	sessions map[core.SessionID]*managedSession
	now      func() time.Time
}

type managedSession struct {
	session  *Session
	lastUsed time.Time
}

// NewSessionManager creates an empty session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[core.SessionID]*managedSession),
		now:      time.Now,
	}
}

// CreateSession starts a new session over ds
func (sm *SessionManager) CreateSession(ds *dataset.Dataset) (*Session, error) {
	s, err := NewSession(ds)
	if err != nil {
		return nil, err
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[s.ID] = &managedSession{session: s, lastUsed: sm.now()}
	return s, nil
}

// GetSession returns the session with the given ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	id, err := core.ParseSessionID(sessionID)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	m, ok := sm.sessions[id]
	if !ok {
		return nil, errors.WithCode(errors.CodeNotFound, core.NewNotFoundError("session", sessionID))
	}
	m.lastUsed = sm.now()
	return m.session, nil
}

// DeleteSession drops a session. It reports whether the session existed.
func (sm *SessionManager) DeleteSession(sessionID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	id := core.SessionID(sessionID)
	if _, ok := sm.sessions[id]; !ok {
		return false
	}
	delete(sm.sessions, id)
	return true
}

// ListSessions returns the session IDs, oldest first
func (sm *SessionManager) ListSessions() []core.SessionID {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	ids := make([]core.SessionID, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	// v7 IDs sort by creation time
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CleanupOldSessions removes sessions unused for longer than maxAge and
// returns how many were removed
func (sm *SessionManager) CleanupOldSessions(maxAge time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cutoff := sm.now().Add(-maxAge)
	removed := 0
	for id, m := range sm.sessions {
		if m.lastUsed.Before(cutoff) {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}
