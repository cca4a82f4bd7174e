package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"studyquest-backend/internal/domain"
	"studyquest-backend/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "boss:catalog"

// QuestionBank caches the question catalog in Redis as a JSON blob so
// multiple instances share one copy, falling back to a loader on miss.
type QuestionBank struct {
	client *redis.Client
	loader memory.CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader memory.CatalogLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) Catalog(ctx context.Context) ([]domain.QuizQuestion, error) {
	if catalog, ok := b.fromCache(ctx); ok {
		return catalog, nil
	}

	result, err, _ := b.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := b.fromCache(ctx); ok {
			return catalog, nil
		}

		catalog, err := b.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(catalog); err == nil {
			_ = b.client.Set(ctx, catalogKey, data, b.ttlWithJitter()).Err()
		}
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizQuestion), nil
}

func (b *QuestionBank) fromCache(ctx context.Context) ([]domain.QuizQuestion, bool) {
	data, err := b.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var catalog []domain.QuizQuestion
	if err := json.Unmarshal(data, &catalog); err != nil || len(catalog) == 0 {
		return nil, false
	}
	return catalog, true
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
