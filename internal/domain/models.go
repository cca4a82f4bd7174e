package domain

import "time"

// QuizQuestion is one immutable catalog item. Choices are ordered and
// AnswerIdx is a 0-based index into them.
type QuizQuestion struct {
	Prompt    string   `json:"question"`
	Choices   []string `json:"choices"`
	AnswerIdx int      `json:"answer_idx"`
}

// BattleOutcome labels how a boss battle session ended.
type BattleOutcome string

const (
	OutcomeCompleted  BattleOutcome = "completed"
	OutcomeOutOfLives BattleOutcome = "out_of_lives"
	OutcomeTimedOut   BattleOutcome = "timeout"
	OutcomeForfeited  BattleOutcome = "forfeit"
)

// BattleRecord is the durable, append-only outcome of a terminated session.
type BattleRecord struct {
	User           string        `json:"user"`
	Date           time.Time     `json:"date"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	XPReward       int           `json:"xp_reward"`
	Difficulty     string        `json:"difficulty"`
	Outcome        BattleOutcome `json:"outcome"`
	Completed      bool          `json:"completed"`
}

// BattleResult is the settlement payload returned to clients when a
// session reaches a terminal state.
type BattleResult struct {
	Status         BattleOutcome `json:"status,omitempty"`
	Score          int           `json:"score"`
	XPReward       int           `json:"xp_reward"`
	TotalQuestions int           `json:"total_questions"`
	LivesRemaining int           `json:"lives_remaining"`
	Ended          bool          `json:"ended"`
	// Closed marks the generic response for a settle attempt that lost a
	// terminal-trigger race; no scoring fields are meaningful then.
	Closed bool `json:"-"`
}

// User is a StudyQuest account. The battle engine only reads existence and
// increments TotalXP; the rest is thin CRUD.
type User struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	JoinDate time.Time `json:"join_date"`
	TotalXP  int       `json:"total_xp"`
}

// ProgressEntry records one study session.
type ProgressEntry struct {
	ID              int64     `json:"id"`
	User            string    `json:"user"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	XPGained        int       `json:"xp_gained"`
	Reflection      string    `json:"reflection,omitempty"`
}

// ProgressStats aggregates a user's study history.
type ProgressStats struct {
	User            string  `json:"user"`
	TotalSessions   int     `json:"total_sessions"`
	TotalXP         int     `json:"total_xp"`
	AverageDuration float64 `json:"average_duration_minutes"`
	StreakDays      int     `json:"current_streak_days"`
}

// Reflection is a text-mentor entry with stub feedback attached.
type Reflection struct {
	ID             int64     `json:"id"`
	User           string    `json:"user"`
	Date           time.Time `json:"date"`
	ReflectionText string    `json:"reflection_text"`
	AIFeedback     string    `json:"ai_feedback"`
	Summary        string    `json:"summary"`
	XPReward       int       `json:"xp_reward"`
}

// LeaderboardEntry is one ranked row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"user"`
	TotalXP  int    `json:"total_xp"`
}
