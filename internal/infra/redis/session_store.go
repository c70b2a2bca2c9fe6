package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"quizwhiz-service/internal/app"
)

const markerTimeout = 2 * time.Second

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - The local map stays authoritative; sessions live in this process.
//   - Redis mirrors which quizzes are live (quiz:session:{id}) and which connections joined them
//     (quiz:session:{id}:members), so operators and other instances can see room membership.
//   - Marker writes are best effort and happen outside the map lock.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu          sync.RWMutex
	sessions    map[string]*app.Session
	connections map[string]string
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:      client,
		ttl:         ttl,
		sessions:    make(map[string]*app.Session),
		connections: make(map[string]string),
	}
}

func (s *SessionStore) LoadOrStore(session *app.Session) (*app.Session, bool) {
	s.mu.Lock()
	if existing, ok := s.sessions[session.ID()]; ok {
		s.mu.Unlock()
		return existing, true
	}
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
	defer cancel()
	_ = s.client.Set(ctx, s.key(session.ID()), session.QuestionCount(), s.ttl).Err()
	return session, false
}

func (s *SessionStore) Get(quizID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID]
	return session, ok
}

func (s *SessionStore) Bind(connectionID, quizID string) {
	s.mu.Lock()
	s.connections[connectionID] = quizID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
	defer cancel()
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.membersKey(quizID), connectionID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.membersKey(quizID), s.ttl)
		pipe.Expire(ctx, s.key(quizID), s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (s *SessionStore) Unbind(connectionID string) (string, bool) {
	s.mu.Lock()
	quizID, ok := s.connections[connectionID]
	if ok {
		delete(s.connections, connectionID)
	}
	s.mu.Unlock()
	if !ok {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
	defer cancel()
	_ = s.client.SRem(ctx, s.membersKey(quizID), connectionID).Err()
	return quizID, true
}

// Members lists the connection ids Redis has recorded for a quiz.
func (s *SessionStore) Members(ctx context.Context, quizID string) ([]string, error) {
	return s.client.SMembers(ctx, s.membersKey(quizID)).Result()
}

func (s *SessionStore) key(quizID string) string {
	return "quiz:session:" + quizID
}

func (s *SessionStore) membersKey(quizID string) string {
	return s.key(quizID) + ":members"
}
