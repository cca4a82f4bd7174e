package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"studyquest-backend/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader reads the question catalog from Postgres. Choices are stored
// as a JSONB array; position fixes the catalog order.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.QuizQuestion, error) {
	rows, err := l.pool.Query(ctx, `SELECT prompt, choices, answer_idx FROM questions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var catalog []domain.QuizQuestion
	for rows.Next() {
		var q domain.QuizQuestion
		var choices []byte
		if err := rows.Scan(&q.Prompt, &choices, &q.AnswerIdx); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(choices, &q.Choices); err != nil {
			return nil, fmt.Errorf("unmarshal choices: %w", err)
		}
		catalog = append(catalog, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}
