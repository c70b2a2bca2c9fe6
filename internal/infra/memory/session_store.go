package memory

import (
	"sync"

	"quizwhiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions are kept for the life of the process.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*app.Session
	connections map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*app.Session),
		connections: make(map[string]string),
	}
}

// LoadOrStore registers session unless one with the same id exists, in which case that one is returned.
func (s *SessionStore) LoadOrStore(session *app.Session) (*app.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[session.ID()]; ok {
		return existing, true
	}
	s.sessions[session.ID()] = session
	return session, false
}

func (s *SessionStore) Get(quizID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

// Bind records which quiz a connection joined.
func (s *SessionStore) Bind(connectionID, quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[connectionID] = quizID
}

// Unbind forgets a connection and returns the quiz it had joined.
func (s *SessionStore) Unbind(connectionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quizID, ok := s.connections[connectionID]
	if ok {
		delete(s.connections, connectionID)
	}
	return quizID, ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
