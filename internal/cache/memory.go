package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/edubrain/answer-backend/internal/entity"
)

const cleanupInterval = 10 * time.Minute

// Memory keeps answers in process memory with per-entry expiration.
type Memory struct {
	store *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		store: gocache.New(ttl, cleanupInterval),
	}
}

func (m *Memory) Get(ctx context.Context, question string, qtype entity.QuestionType, options string) (string, bool) {
	v, ok := m.store.Get(Key(question, qtype, options))
	if !ok {
		return "", false
	}

	answer, ok := v.(string)

	return answer, ok
}

func (m *Memory) Set(ctx context.Context, question string, qtype entity.QuestionType, options, answer string) {
	m.store.SetDefault(Key(question, qtype, options), answer)
}

func (m *Memory) Clear(ctx context.Context) error {
	m.store.Flush()

	return nil
}

func (m *Memory) Size(ctx context.Context) (int64, error) {
	return int64(m.store.ItemCount()), nil
}
