package storage

import (
	"sync"

	"github.com/ajuraforce/photo-product-analyzer/internal/models"
)

type entry struct {
	mu      sync.Mutex
	session *models.Session
}

// SessionStore keeps one conversation per user in memory.
// Acquire serializes all mutation of a single user's session.
type SessionStore struct {
	sessions map[int64]*entry
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*entry),
	}
}

func (s *SessionStore) entry(userID int64) *entry {
	s.mu.RLock()
	e, exists := s.sessions[userID]
	s.mu.RUnlock()
	if exists {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, exists = s.sessions[userID]; exists {
		return e
	}
	e = &entry{session: &models.Session{UserID: userID}}
	s.sessions[userID] = e
	return e
}

// Acquire locks the user's session, creating an idle one on first contact.
// The caller must invoke release when done.
func (s *SessionStore) Acquire(userID int64) (*models.Session, func()) {
	e := s.entry(userID)
	e.mu.Lock()
	return e.session, e.mu.Unlock
}

// Get returns a copy of the user's session, waiting for any in-flight handler
// to release it first. Pending is shared and must not be mutated.
func (s *SessionStore) Get(userID int64) (models.Session, bool) {
	s.mu.RLock()
	e, exists := s.sessions[userID]
	s.mu.RUnlock()
	if !exists {
		return models.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.session, true
}

// Len returns the number of known sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
