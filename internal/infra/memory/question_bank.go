package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"studyquest-backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the question catalog from a backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.QuizQuestion, error)
}

// QuestionBank caches the catalog with TTL to avoid repeated DB hits. The
// catalog order is preserved exactly as loaded.
type QuestionBank struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.QuizQuestion
	expiresAt time.Time
}

func NewQuestionBank(loader CatalogLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) Catalog(ctx context.Context) ([]domain.QuizQuestion, error) {
	now := b.clock()

	b.mu.RLock()
	if b.cached != nil && b.expiresAt.After(now) {
		catalog := b.cached
		b.mu.RUnlock()
		return catalog, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do("catalog", func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if b.cached != nil && b.expiresAt.After(now) {
			catalog := b.cached
			b.mu.RUnlock()
			return catalog, nil
		}
		b.mu.RUnlock()

		catalog, err := b.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cached = catalog
		b.expiresAt = now.Add(b.ttlWithJitter())
		b.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizQuestion), nil
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader serves a fixed in-memory catalog (demo/test use).
type StaticCatalogLoader struct {
	questions []domain.QuizQuestion
}

func NewStaticCatalogLoader(questions []domain.QuizQuestion) *StaticCatalogLoader {
	return &StaticCatalogLoader{questions: questions}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) ([]domain.QuizQuestion, error) {
	return l.questions, nil
}

// DefaultCatalog is the built-in question set used when no database is
// configured.
func DefaultCatalog() []domain.QuizQuestion {
	return []domain.QuizQuestion{
		{
			Prompt:    "What is the time complexity of binary search?",
			Choices:   []string{"O(n)", "O(log n)", "O(n log n)", "O(1)"},
			AnswerIdx: 1,
		},
		{
			Prompt:    "Which HTTP method is idempotent?",
			Choices:   []string{"POST", "PUT", "PATCH", "CONNECT"},
			AnswerIdx: 1,
		},
		{
			Prompt: "What does SQL stand for?",
			Choices: []string{
				"Simple Query Language",
				"Structured Query Language",
				"Sequential Query Language",
				"System Query Language",
			},
			AnswerIdx: 1,
		},
		{
			Prompt:    "Which data structure uses FIFO order?",
			Choices:   []string{"Stack", "Queue", "Tree", "Heap"},
			AnswerIdx: 1,
		},
		{
			Prompt:    "Which status code means 'Not Found'?",
			Choices:   []string{"200", "301", "404", "500"},
			AnswerIdx: 2,
		},
	}
}
