package memory

import (
	"sync"

	"quiz-generator-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Get(quizID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.QuizID()] = session
}

func (s *SessionStore) Delete(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, quizID)
}

func (s *SessionStore) Evict(pred func(*app.Session) bool) int {
	s.mu.Lock()
	candidates := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.Unlock()

	// pred may lock the session; never hold the store lock while it runs.
	evicted := 0
	for _, session := range candidates {
		if !pred(session) {
			continue
		}
		s.mu.Lock()
		if current, ok := s.sessions[session.QuizID()]; ok && current == session {
			delete(s.sessions, session.QuizID())
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// Len returns the number of registered sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
