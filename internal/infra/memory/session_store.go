package memory

import (
	"sync"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore. One
// coarse lock guards the map; per-session state has its own mutex inside
// app.BattleSession.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.BattleSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.BattleSession),
	}
}

// Put inserts the session unless its user already has one active.
func (s *SessionStore) Put(session *app.BattleSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.User()]; ok {
		return domain.ErrBattleActive
	}
	s.sessions[session.User()] = session
	return nil
}

func (s *SessionStore) Get(user string) (*app.BattleSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[user]
	return session, ok
}

// Remove is idempotent; removing an absent session is a no-op.
func (s *SessionStore) Remove(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, user)
}

// Users returns a snapshot of users with active sessions.
func (s *SessionStore) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.sessions))
	for user := range s.sessions {
		users = append(users, user)
	}
	return users
}
