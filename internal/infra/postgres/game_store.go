package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studyquest-backend/internal/domain"
	"github.com/uptrace/bun"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64     `bun:"id,pk,autoincrement"`
	Username string    `bun:"username,notnull,unique"`
	Email    string    `bun:"email"`
	JoinDate time.Time `bun:"join_date,notnull"`
	TotalXP  int       `bun:"total_xp,notnull"`
}

type battleRow struct {
	bun.BaseModel `bun:"table:boss_battles,alias:bb"`

	ID             int64     `bun:"id,pk,autoincrement"`
	Username       string    `bun:"username,notnull"`
	Date           time.Time `bun:"date,notnull"`
	Score          int       `bun:"score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	XPReward       int       `bun:"xp_reward,notnull"`
	Difficulty     string    `bun:"difficulty,notnull"`
	Outcome        string    `bun:"outcome,notnull"`
	Completed      bool      `bun:"completed,notnull"`
}

type progressRow struct {
	bun.BaseModel `bun:"table:progress_logs,alias:pl"`

	ID              int64     `bun:"id,pk,autoincrement"`
	Username        string    `bun:"username,notnull"`
	Date            time.Time `bun:"date,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	XPGained        int       `bun:"xp_gained,notnull"`
	Reflection      string    `bun:"reflection"`
}

type reflectionRow struct {
	bun.BaseModel `bun:"table:reflections,alias:rf"`

	ID             int64     `bun:"id,pk,autoincrement"`
	Username       string    `bun:"username,notnull"`
	Date           time.Time `bun:"date,notnull"`
	ReflectionText string    `bun:"reflection_text,notnull"`
	AIFeedback     string    `bun:"ai_feedback"`
	Summary        string    `bun:"summary"`
	XPReward       int       `bun:"xp_reward,notnull"`
}

// GameStore is the Postgres-backed durable store: user directory, settlement
// log, progress log, and reflections.
type GameStore struct {
	db *bun.DB
}

func NewGameStore(db *bun.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Exists(ctx context.Context, username string) (bool, error) {
	return s.db.NewSelect().
		Model((*userRow)(nil)).
		Where("username = ?", username).
		Exists(ctx)
}

func (s *GameStore) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	exists, err := s.Exists(ctx, u.Username)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, domain.ErrUserExists
	}

	row := userRow{
		Username: u.Username,
		Email:    u.Email,
		JoinDate: u.JoinDate,
		TotalXP:  u.TotalXP,
	}
	if row.JoinDate.IsZero() {
		row.JoinDate = time.Now()
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return userFromRow(row), nil
}

func (s *GameStore) GetUser(ctx context.Context, username string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("username = ?", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return userFromRow(row), nil
}

func (s *GameStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return usersFromRows(rows), nil
}

func (s *GameStore) TopUsersByXP(ctx context.Context, limit int) ([]domain.User, error) {
	var rows []userRow
	q := s.db.NewSelect().Model(&rows).Order("total_xp DESC", "username ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return usersFromRows(rows), nil
}

// Settle writes the XP increment and the battle record in one transaction.
// A user row that no longer exists skips the increment; existence was
// already validated when the session started.
func (s *GameStore) Settle(ctx context.Context, rec domain.BattleRecord) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*userRow)(nil)).
			Set("total_xp = total_xp + ?", rec.XPReward).
			Where("username = ?", rec.User).
			Exec(ctx); err != nil {
			return fmt.Errorf("increment xp: %w", err)
		}

		row := battleRow{
			Username:       rec.User,
			Date:           rec.Date,
			Score:          rec.Score,
			TotalQuestions: rec.TotalQuestions,
			XPReward:       rec.XPReward,
			Difficulty:     rec.Difficulty,
			Outcome:        string(rec.Outcome),
			Completed:      rec.Completed,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("append battle record: %w", err)
		}
		return nil
	})
}

func (s *GameStore) AppendProgress(ctx context.Context, e domain.ProgressEntry) (domain.ProgressEntry, error) {
	row := progressRow{
		Username:        e.User,
		Date:            e.Date,
		DurationMinutes: e.DurationMinutes,
		XPGained:        e.XPGained,
		Reflection:      e.Reflection,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.ProgressEntry{}, fmt.Errorf("insert progress: %w", err)
	}
	e.ID = row.ID
	return e, nil
}

func (s *GameStore) ProgressByUser(ctx context.Context, user string) ([]domain.ProgressEntry, error) {
	var rows []progressRow
	if err := s.db.NewSelect().Model(&rows).Where("username = ?", user).Order("date ASC").Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]domain.ProgressEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.ProgressEntry{
			ID:              r.ID,
			User:            r.Username,
			Date:            r.Date,
			DurationMinutes: r.DurationMinutes,
			XPGained:        r.XPGained,
			Reflection:      r.Reflection,
		})
	}
	return entries, nil
}

func (s *GameStore) DeleteProgress(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*progressRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProgressNotFound
	}
	return nil
}

func (s *GameStore) AppendReflection(ctx context.Context, r domain.Reflection) (domain.Reflection, error) {
	row := reflectionRow{
		Username:       r.User,
		Date:           r.Date,
		ReflectionText: r.ReflectionText,
		AIFeedback:     r.AIFeedback,
		Summary:        r.Summary,
		XPReward:       r.XPReward,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return domain.Reflection{}, fmt.Errorf("insert reflection: %w", err)
	}
	r.ID = row.ID
	return r, nil
}

func (s *GameStore) ReflectionsByUser(ctx context.Context, user string) ([]domain.Reflection, error) {
	var rows []reflectionRow
	if err := s.db.NewSelect().Model(&rows).Where("username = ?", user).Order("date ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Reflection, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Reflection{
			ID:             r.ID,
			User:           r.Username,
			Date:           r.Date,
			ReflectionText: r.ReflectionText,
			AIFeedback:     r.AIFeedback,
			Summary:        r.Summary,
			XPReward:       r.XPReward,
		})
	}
	return out, nil
}

func userFromRow(r userRow) domain.User {
	return domain.User{
		ID:       r.ID,
		Username: r.Username,
		Email:    r.Email,
		JoinDate: r.JoinDate,
		TotalXP:  r.TotalXP,
	}
}

func usersFromRows(rows []userRow) []domain.User {
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, userFromRow(r))
	}
	return users
}
