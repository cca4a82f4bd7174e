package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studyquest-backend/internal/domain"
)

// XP awarded per correct answer, regardless of difficulty label.
const XPPerCorrectAnswer = 20

const (
	DefaultDifficulty       = "medium"
	DefaultTotalQuestions   = 5
	DefaultTimeLimitSeconds = 180
	startingLives           = 3
)

// SessionStore holds at most one active battle session per user.
// Put must be atomic: of two concurrent Puts for the same user exactly one
// succeeds, the other observes domain.ErrBattleActive.
type SessionStore interface {
	Put(session *BattleSession) error
	Get(user string) (*BattleSession, bool)
	Remove(user string)
	Users() []string
}

// QuestionBank supplies the ordered, read-only question catalog.
type QuestionBank interface {
	Catalog(ctx context.Context) ([]domain.QuizQuestion, error)
}

// UserDirectory is the battle engine's view of durable user records.
type UserDirectory interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// SettlementStore durably records a terminated session: the XP increment and
// the record append must happen as one atomic unit.
type SettlementStore interface {
	Settle(ctx context.Context, rec domain.BattleRecord) error
}

// BattleService runs the timed boss battle state machine.
type BattleService struct {
	sessions    SessionStore
	bank        QuestionBank
	users       UserDirectory
	settlements SettlementStore
	now         func() time.Time
}

func NewBattleService(sessions SessionStore, bank QuestionBank, users UserDirectory, settlements SettlementStore) *BattleService {
	return NewBattleServiceWithClock(sessions, bank, users, settlements, time.Now)
}

// NewBattleServiceWithClock is test-only for deterministic timers.
func NewBattleServiceWithClock(sessions SessionStore, bank QuestionBank, users UserDirectory, settlements SettlementStore, now func() time.Time) *BattleService {
	return &BattleService{
		sessions:    sessions,
		bank:        bank,
		users:       users,
		settlements: settlements,
		now:         now,
	}
}

// BattleSession is one user's in-progress boss battle, tracked only in
// volatile memory. All state transitions happen under mu.
type BattleSession struct {
	mu sync.Mutex

	user             string
	difficulty       string
	startedAt        time.Time
	timeLimitSeconds int
	lives            int
	score            int
	round            int
	total            int
	questions        []domain.QuizQuestion
	now              func() time.Time
	ended            bool
}

// NewBattleSession is exported for infrastructure layers and their tests
// that need to seed bare sessions.
func NewBattleSession(user string) *BattleSession {
	return &BattleSession{
		user:             user,
		startedAt:        time.Now(),
		timeLimitSeconds: DefaultTimeLimitSeconds,
		lives:            startingLives,
		now:              time.Now,
	}
}

// User returns the session's identity key.
func (b *BattleSession) User() string { return b.user }

func (b *BattleSession) remainingLocked() int {
	elapsed := int(b.now().Sub(b.startedAt).Seconds())
	remaining := b.timeLimitSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StartConfig carries the parameters of a new battle. Zero Difficulty and
// TimeLimitSeconds fall back to the defaults; TotalQuestions must be >= 1.
type StartConfig struct {
	User             string
	Difficulty       string
	TotalQuestions   int
	TimeLimitSeconds int
}

// QuestionView is the client-facing shape of one round's question. The
// correct index is never exposed.
type QuestionView struct {
	Number  int      `json:"number"`
	Total   int      `json:"total"`
	Prompt  string   `json:"question"`
	Choices []string `json:"choices"`
}

// StartResult describes a freshly created session.
type StartResult struct {
	User         string       `json:"user"`
	TimerSeconds int          `json:"timer_seconds"`
	Lives        int          `json:"lives"`
	Question     QuestionView `json:"current_question"`
}

// BattleView is the current question plus live session metadata.
type BattleView struct {
	Question         QuestionView `json:"current_question"`
	Lives            int          `json:"lives"`
	Score            int          `json:"score"`
	RemainingSeconds int          `json:"timer_remaining"`
}

// AnswerFeedback is returned when an answer is scored and the battle is
// still active. Next is the upcoming round's question; it is not consumed.
type AnswerFeedback struct {
	Correct          bool         `json:"correct"`
	Feedback         string       `json:"feedback"`
	Lives            int          `json:"lives"`
	Score            int          `json:"score"`
	RemainingSeconds int          `json:"timer_remaining"`
	Next             QuestionView `json:"next_question"`
}

// BattleStatus is a read-only snapshot of a live session.
type BattleStatus struct {
	Lives            int  `json:"lives"`
	Score            int  `json:"score"`
	QuestionNumber   int  `json:"question_number"`
	TotalQuestions   int  `json:"total_questions"`
	RemainingSeconds int  `json:"timer_remaining"`
	Completed        bool `json:"completed"`
}

// Start validates the request and creates the session. The question slice is
// a prefix snapshot of the catalog taken here: deterministic, not shuffled.
func (s *BattleService) Start(ctx context.Context, cfg StartConfig) (StartResult, error) {
	ok, err := s.users.Exists(ctx, cfg.User)
	if err != nil {
		return StartResult{}, fmt.Errorf("check user %q: %w", cfg.User, err)
	}
	if !ok {
		return StartResult{}, domain.ErrUserNotFound
	}

	if cfg.TotalQuestions < 1 {
		return StartResult{}, domain.ErrInvalidQuestionCount
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = DefaultDifficulty
	}
	if cfg.TimeLimitSeconds <= 0 {
		cfg.TimeLimitSeconds = DefaultTimeLimitSeconds
	}

	catalog, err := s.bank.Catalog(ctx)
	if err != nil {
		return StartResult{}, fmt.Errorf("load question catalog: %w", err)
	}
	if len(catalog) == 0 {
		return StartResult{}, domain.ErrEmptyCatalog
	}

	total := cfg.TotalQuestions
	if total > len(catalog) {
		total = len(catalog)
	}
	questions := make([]domain.QuizQuestion, total)
	copy(questions, catalog[:total])

	sess := &BattleSession{
		user:             cfg.User,
		difficulty:       cfg.Difficulty,
		startedAt:        s.now(),
		timeLimitSeconds: cfg.TimeLimitSeconds,
		lives:            startingLives,
		total:            total,
		questions:        questions,
		now:              s.now,
	}
	first := questionViewLocked(sess, 0)
	if err := s.sessions.Put(sess); err != nil {
		return StartResult{}, err
	}

	return StartResult{
		User:         cfg.User,
		TimerSeconds: cfg.TimeLimitSeconds,
		Lives:        startingLives,
		Question:     first,
	}, nil
}

// CurrentQuestion returns the active round's question, or the settlement
// result if a terminal condition is detected on this read.
func (s *BattleService) CurrentQuestion(ctx context.Context, user string) (BattleView, *domain.BattleResult, error) {
	sess, ok := s.sessions.Get(user)
	if !ok {
		return BattleView{}, nil, domain.ErrNoBattle
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if res, done, err := s.checkTerminalsLocked(ctx, sess); done || err != nil {
		return BattleView{}, res, err
	}

	return BattleView{
		Question:         questionViewLocked(sess, sess.round),
		Lives:            sess.lives,
		Score:            sess.score,
		RemainingSeconds: sess.remainingLocked(),
	}, nil, nil
}

// SubmitAnswer scores choiceIdx against the current round. Terminal
// precedence is fixed: timeout, then out-of-lives, then exhausted rounds. A
// stale answer arriving after expiry settles as a timeout and never scores.
func (s *BattleService) SubmitAnswer(ctx context.Context, user string, choiceIdx int) (AnswerFeedback, *domain.BattleResult, error) {
	sess, ok := s.sessions.Get(user)
	if !ok {
		return AnswerFeedback{}, nil, domain.ErrNoBattle
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.remainingLocked() == 0 {
		res, err := s.settleLocked(ctx, sess, domain.OutcomeTimedOut)
		return AnswerFeedback{}, &res, err
	}
	if sess.round >= sess.total {
		res, err := s.settleLocked(ctx, sess, domain.OutcomeCompleted)
		return AnswerFeedback{}, &res, err
	}

	question := sess.questions[sess.round]
	correct := choiceIdx == question.AnswerIdx
	feedback := "Wrong! -1 life"
	if correct {
		sess.score++
		feedback = "Correct! +20 XP"
	} else {
		sess.lives--
	}
	sess.round++

	if sess.lives <= 0 {
		res, err := s.settleLocked(ctx, sess, domain.OutcomeOutOfLives)
		return AnswerFeedback{}, &res, err
	}
	if sess.round >= sess.total {
		res, err := s.settleLocked(ctx, sess, domain.OutcomeCompleted)
		return AnswerFeedback{}, &res, err
	}

	return AnswerFeedback{
		Correct:          correct,
		Feedback:         feedback,
		Lives:            sess.lives,
		Score:            sess.score,
		RemainingSeconds: sess.remainingLocked(),
		Next:             questionViewLocked(sess, sess.round),
	}, nil, nil
}

// Status reports live session state without advancing it, except that a
// detected timeout still settles.
func (s *BattleService) Status(ctx context.Context, user string) (BattleStatus, *domain.BattleResult, error) {
	sess, ok := s.sessions.Get(user)
	if !ok {
		return BattleStatus{}, nil, domain.ErrNoBattle
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.remainingLocked() == 0 {
		res, err := s.settleLocked(ctx, sess, domain.OutcomeTimedOut)
		return BattleStatus{}, &res, err
	}

	number := sess.round + 1
	if number > sess.total {
		number = sess.total
	}
	return BattleStatus{
		Lives:            sess.lives,
		Score:            sess.score,
		QuestionNumber:   number,
		TotalQuestions:   sess.total,
		RemainingSeconds: sess.remainingLocked(),
	}, nil, nil
}

// Forfeit unconditionally ends the session.
func (s *BattleService) Forfeit(ctx context.Context, user string) (domain.BattleResult, error) {
	sess, ok := s.sessions.Get(user)
	if !ok {
		return domain.BattleResult{}, domain.ErrNoBattle
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.settleLocked(ctx, sess, domain.OutcomeForfeited)
}

// SweepExpired settles every session whose timer has run out, reusing the
// same termination path as lazy detection. Returns the number settled.
func (s *BattleService) SweepExpired(ctx context.Context) int {
	settled := 0
	for _, user := range s.sessions.Users() {
		sess, ok := s.sessions.Get(user)
		if !ok {
			continue
		}
		sess.mu.Lock()
		if !sess.ended && sess.remainingLocked() == 0 {
			if _, err := s.settleLocked(ctx, sess, domain.OutcomeTimedOut); err == nil {
				settled++
			}
		}
		sess.mu.Unlock()
	}
	return settled
}

func (s *BattleService) checkTerminalsLocked(ctx context.Context, sess *BattleSession) (*domain.BattleResult, bool, error) {
	var cause domain.BattleOutcome
	switch {
	case sess.remainingLocked() == 0:
		cause = domain.OutcomeTimedOut
	case sess.lives <= 0:
		cause = domain.OutcomeOutOfLives
	case sess.round >= sess.total:
		cause = domain.OutcomeCompleted
	default:
		return nil, false, nil
	}
	res, err := s.settleLocked(ctx, sess, cause)
	return &res, true, err
}

// settleLocked performs the exactly-once settlement hand-off: durable write
// first, then eviction. On a durable-write failure the session is retained so
// a retry can settle again. A settle attempt that lost a terminal race
// returns the generic closed result.
func (s *BattleService) settleLocked(ctx context.Context, sess *BattleSession, cause domain.BattleOutcome) (domain.BattleResult, error) {
	if sess.ended {
		return domain.BattleResult{Ended: true, Closed: true}, nil
	}

	xp := sess.score * XPPerCorrectAnswer
	rec := domain.BattleRecord{
		User:           sess.user,
		Date:           s.now(),
		Score:          sess.score,
		TotalQuestions: sess.total,
		XPReward:       xp,
		Difficulty:     sess.difficulty,
		Outcome:        cause,
		Completed:      true,
	}
	if err := s.settlements.Settle(ctx, rec); err != nil {
		return domain.BattleResult{}, fmt.Errorf("settle boss battle for %q: %w", sess.user, err)
	}

	sess.ended = true
	s.sessions.Remove(sess.user)

	return domain.BattleResult{
		Status:         cause,
		Score:          sess.score,
		XPReward:       xp,
		TotalQuestions: sess.total,
		LivesRemaining: sess.lives,
		Ended:          true,
	}, nil
}

func questionViewLocked(sess *BattleSession, idx int) QuestionView {
	q := sess.questions[idx]
	return QuestionView{
		Number:  idx + 1,
		Total:   sess.total,
		Prompt:  q.Prompt,
		Choices: q.Choices,
	}
}
