package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"studyquest-backend/internal/domain"
)

// GameStore is the in-memory fallback for all durable state: user directory,
// settlement log, progress log, and reflections. A single mutex makes each
// operation, settlement included, atomic. Useful for dev mode and tests.
type GameStore struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	battles     []domain.BattleRecord
	progress    []domain.ProgressEntry
	reflections []domain.Reflection
	nextUserID  int64
	nextEntryID int64
}

func NewGameStore() *GameStore {
	return &GameStore{
		users:       make(map[string]*domain.User),
		nextUserID:  1,
		nextEntryID: 1,
	}
}

func (s *GameStore) Exists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *GameStore) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return domain.User{}, domain.ErrUserExists
	}
	u.ID = s.nextUserID
	s.nextUserID++
	if u.JoinDate.IsZero() {
		u.JoinDate = time.Now()
	}
	stored := u
	s.users[u.Username] = &stored
	return u, nil
}

func (s *GameStore) GetUser(_ context.Context, username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

func (s *GameStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *GameStore) TopUsersByXP(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].TotalXP != users[j].TotalXP {
			return users[i].TotalXP > users[j].TotalXP
		}
		return users[i].Username < users[j].Username
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// Settle appends the record and increments the user's XP as one unit. A
// vanished user skips the increment rather than failing the settlement.
func (s *GameStore) Settle(_ context.Context, rec domain.BattleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[rec.User]; ok {
		u.TotalXP += rec.XPReward
	}
	s.battles = append(s.battles, rec)
	return nil
}

// BattleRecords returns a copy of the settlement log (test use).
func (s *GameStore) BattleRecords() []domain.BattleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BattleRecord, len(s.battles))
	copy(out, s.battles)
	return out
}

func (s *GameStore) AppendProgress(_ context.Context, e domain.ProgressEntry) (domain.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextEntryID
	s.nextEntryID++
	s.progress = append(s.progress, e)
	return e, nil
}

func (s *GameStore) ProgressByUser(_ context.Context, user string) ([]domain.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ProgressEntry
	for _, e := range s.progress {
		if e.User == user {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *GameStore) DeleteProgress(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.progress {
		if e.ID == id {
			s.progress = append(s.progress[:i], s.progress[i+1:]...)
			return nil
		}
	}
	return domain.ErrProgressNotFound
}

func (s *GameStore) AppendReflection(_ context.Context, r domain.Reflection) (domain.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextEntryID
	s.nextEntryID++
	s.reflections = append(s.reflections, r)
	return r, nil
}

func (s *GameStore) ReflectionsByUser(_ context.Context, user string) ([]domain.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reflection
	for _, r := range s.reflections {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out, nil
}
