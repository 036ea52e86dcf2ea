package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-generator-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions own a live countdown, so they stay in the local map; Redis only
// carries a liveness marker other instances can check before opening the
// same quiz.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	s.sessions[session.QuizID()] = session
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), key(session.QuizID()), session.Owner(), s.ttl).Err()
}

func (s *SessionStore) Delete(quizID string) {
	s.mu.Lock()
	delete(s.sessions, quizID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), key(quizID)).Err()
}

func (s *SessionStore) Evict(pred func(*app.Session) bool) int {
	s.mu.RLock()
	candidates := make([]*app.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, session := range candidates {
		if !pred(session) {
			s.touch(session.QuizID())
			continue
		}
		s.mu.Lock()
		current, ok := s.sessions[session.QuizID()]
		if ok && current == session {
			delete(s.sessions, session.QuizID())
			evicted++
		}
		s.mu.Unlock()
		if ok && current == session {
			_ = s.client.Del(context.Background(), key(session.QuizID())).Err()
		}
	}
	return evicted
}

// Live reports whether any instance marked the quiz as having a live session.
func (s *SessionStore) Live(ctx context.Context, quizID string) (bool, error) {
	n, err := s.client.Exists(ctx, key(quizID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SessionStore) touch(quizID string) {
	if s.ttl <= 0 {
		return
	}
	_ = s.client.Expire(context.Background(), key(quizID), s.ttl).Err()
}

func key(quizID string) string {
	return "quiz:session:" + quizID
}
