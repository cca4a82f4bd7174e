package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT,
    join_date TIMESTAMPTZ NOT NULL DEFAULT now(),
    total_xp INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions (
    id BIGSERIAL PRIMARY KEY,
    position INTEGER NOT NULL,
    prompt TEXT NOT NULL,
    choices JSONB NOT NULL,
    answer_idx INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS boss_battles (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    score INTEGER NOT NULL,
    total_questions INTEGER NOT NULL,
    xp_reward INTEGER NOT NULL,
    difficulty TEXT NOT NULL,
    outcome TEXT NOT NULL,
    completed BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS progress_logs (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    duration_minutes INTEGER NOT NULL,
    xp_gained INTEGER NOT NULL,
    reflection TEXT
);

CREATE TABLE IF NOT EXISTS reflections (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    reflection_text TEXT NOT NULL,
    ai_feedback TEXT,
    summary TEXT,
    xp_reward INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_boss_battles_username ON boss_battles (username);
CREATE INDEX IF NOT EXISTS idx_progress_logs_username ON progress_logs (username);
CREATE INDEX IF NOT EXISTS idx_reflections_username ON reflections (username);
`

const seedQuestionsSQL = `
INSERT INTO questions (position, prompt, choices, answer_idx) VALUES
    (1, 'What is the time complexity of binary search?',
        '["O(n)", "O(log n)", "O(n log n)", "O(1)"]'::jsonb, 1),
    (2, 'Which HTTP method is idempotent?',
        '["POST", "PUT", "PATCH", "CONNECT"]'::jsonb, 1),
    (3, 'What does SQL stand for?',
        '["Simple Query Language", "Structured Query Language", "Sequential Query Language", "System Query Language"]'::jsonb, 1),
    (4, 'Which data structure uses FIFO order?',
        '["Stack", "Queue", "Tree", "Heap"]'::jsonb, 1),
    (5, 'Which status code means ''Not Found''?',
        '["200", "301", "404", "500"]'::jsonb, 2)
ON CONFLICT DO NOTHING;
`

const dropTablesSQL = `
DROP TABLE IF EXISTS reflections;
DROP TABLE IF EXISTS progress_logs;
DROP TABLE IF EXISTS boss_battles;
DROP TABLE IF EXISTS questions;
DROP TABLE IF EXISTS users;
`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, createTablesSQL); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, seedQuestionsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, dropTablesSQL)
			return err
		},
	)
}
