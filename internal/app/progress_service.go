package app

import (
	"context"
	"sort"
	"time"

	"studyquest-backend/internal/domain"
)

// ProgressStore persists study-session log entries.
type ProgressStore interface {
	AppendProgress(ctx context.Context, e domain.ProgressEntry) (domain.ProgressEntry, error)
	ProgressByUser(ctx context.Context, user string) ([]domain.ProgressEntry, error)
	DeleteProgress(ctx context.Context, id int64) error
}

// ProgressService tracks study sessions and their derived XP and streaks.
type ProgressService struct {
	entries ProgressStore
	now     func() time.Time
}

func NewProgressService(entries ProgressStore) *ProgressService {
	return &ProgressService{entries: entries, now: time.Now}
}

// StudyXP awards 10 XP per full 25 minutes studied.
func StudyXP(durationMinutes int) int {
	return (durationMinutes / 25) * 10
}

// Add logs a session and returns the entry with the user's updated streak.
func (s *ProgressService) Add(ctx context.Context, user string, date time.Time, durationMinutes int, reflection string) (domain.ProgressEntry, int, error) {
	if date.IsZero() {
		date = s.now()
	}
	entry, err := s.entries.AppendProgress(ctx, domain.ProgressEntry{
		User:            user,
		Date:            date,
		DurationMinutes: durationMinutes,
		XPGained:        StudyXP(durationMinutes),
		Reflection:      reflection,
	})
	if err != nil {
		return domain.ProgressEntry{}, 0, err
	}

	all, err := s.entries.ProgressByUser(ctx, user)
	if err != nil {
		return domain.ProgressEntry{}, 0, err
	}
	return entry, streakDays(all), nil
}

// List returns a user's entries, ErrProgressNotFound when there are none.
func (s *ProgressService) List(ctx context.Context, user string) ([]domain.ProgressEntry, error) {
	entries, err := s.entries.ProgressByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrProgressNotFound
	}
	return entries, nil
}

// Stats aggregates a user's study history.
func (s *ProgressService) Stats(ctx context.Context, user string) (domain.ProgressStats, error) {
	entries, err := s.entries.ProgressByUser(ctx, user)
	if err != nil {
		return domain.ProgressStats{}, err
	}
	if len(entries) == 0 {
		return domain.ProgressStats{}, domain.ErrProgressNotFound
	}

	totalXP := 0
	totalMinutes := 0
	for _, e := range entries {
		totalXP += e.XPGained
		totalMinutes += e.DurationMinutes
	}
	return domain.ProgressStats{
		User:            user,
		TotalSessions:   len(entries),
		TotalXP:         totalXP,
		AverageDuration: float64(totalMinutes) / float64(len(entries)),
		StreakDays:      streakDays(entries),
	}, nil
}

// Delete removes one entry by id.
func (s *ProgressService) Delete(ctx context.Context, id int64) error {
	return s.entries.DeleteProgress(ctx, id)
}

// streakDays counts consecutive study days ending at the most recent entry.
func streakDays(entries []domain.ProgressEntry) int {
	if len(entries) == 0 {
		return 0
	}
	seen := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		day := e.Date.Truncate(24 * time.Hour)
		seen[day.Format("2006-01-02")] = day
	}
	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			streak++
		} else {
			break
		}
	}
	return streak
}
