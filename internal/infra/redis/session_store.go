package redis

import (
	"context"
	"sync"
	"time"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionStore.
// Notes:
//   - Battle sessions stay in the local map; the state machine mutates them
//     in place and a lock-step remote copy would buy nothing for one process.
//   - Redis marks session liveness so operators can see active battles across
//     instances (and it could be extended to route cross-instance handoff).
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.BattleSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.BattleSession),
	}
}

func (s *SessionStore) Put(session *app.BattleSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := session.User()
	if _, ok := s.sessions[user]; ok {
		return domain.ErrBattleActive
	}
	s.sessions[user] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(user), "1", s.ttl).Err()
	return nil
}

func (s *SessionStore) Get(user string) (*app.BattleSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[user]
	return session, ok
}

func (s *SessionStore) Remove(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[user]; !ok {
		return
	}
	delete(s.sessions, user)
	_ = s.client.Del(context.Background(), s.key(user)).Err()
}

func (s *SessionStore) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.sessions))
	for user := range s.sessions {
		users = append(users, user)
	}
	return users
}

func (s *SessionStore) key(user string) string {
	return "boss:session:" + user
}
