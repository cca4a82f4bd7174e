package app

import (
	"context"
	"strings"
	"time"

	"studyquest-backend/internal/domain"
)

const reflectionXPReward = 10

// ReflectionStore persists text-mentor entries.
type ReflectionStore interface {
	AppendReflection(ctx context.Context, r domain.Reflection) (domain.Reflection, error)
	ReflectionsByUser(ctx context.Context, user string) ([]domain.Reflection, error)
}

// MentorService analyzes study reflections with a keyword classifier. It is
// deliberately a stub, not a model.
type MentorService struct {
	users       UserDirectory
	reflections ReflectionStore
	now         func() time.Time
}

func NewMentorService(users UserDirectory, reflections ReflectionStore) *MentorService {
	return &MentorService{users: users, reflections: reflections, now: time.Now}
}

// AddReflection classifies the text and stores the entry with its feedback.
func (s *MentorService) AddReflection(ctx context.Context, user, text string) (domain.Reflection, error) {
	ok, err := s.users.Exists(ctx, user)
	if err != nil {
		return domain.Reflection{}, err
	}
	if !ok {
		return domain.Reflection{}, domain.ErrUserNotFound
	}

	feedback, summary := classifyReflection(text)
	return s.reflections.AppendReflection(ctx, domain.Reflection{
		User:           user,
		Date:           s.now(),
		ReflectionText: text,
		AIFeedback:     feedback,
		Summary:        summary,
		XPReward:       reflectionXPReward,
	})
}

// Reflections lists a user's stored reflections.
func (s *MentorService) Reflections(ctx context.Context, user string) ([]domain.Reflection, error) {
	ok, err := s.users.Exists(ctx, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.reflections.ReflectionsByUser(ctx, user)
}

var (
	struggleWords = []string{"tired", "hard", "struggle", "stuck"}
	upbeatWords   = []string{"happy", "productive", "focused", "good", "great"}
)

func classifyReflection(text string) (feedback, summary string) {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, struggleWords):
		feedback = "It sounds like you faced challenges today - remember, progress is built through persistence."
	case containsAny(lower, upbeatWords):
		feedback = "Fantastic work! Keep maintaining that focused mindset."
	default:
		feedback = "Keep reflecting - awareness is the key to consistent improvement."
	}

	summary = text
	if len(summary) > 120 {
		summary = summary[:120] + "..."
	}
	return feedback, summary
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
