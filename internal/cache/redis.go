package cache

import (
	"context"
	"errors"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
)

// Redis stores answers in a shared Redis instance so multiple backend
// replicas see the same cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
	}
}

// Get treats any Redis failure as a miss. A broken cache must not fail
// the search request.
func (r *Redis) Get(ctx context.Context, question string, qtype entity.QuestionType, options string) (string, bool) {
	answer, err := r.client.Get(ctx, Key(question, qtype, options)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			ctxzap.Warn(ctx, "redis cache get failed", zap.Error(err))
		}

		return "", false
	}

	return answer, true
}

func (r *Redis) Set(ctx context.Context, question string, qtype entity.QuestionType, options, answer string) {
	err := r.client.Set(ctx, Key(question, qtype, options), answer, r.ttl).Err()
	if err != nil {
		ctxzap.Warn(ctx, "redis cache set failed", zap.Error(err))
	}
}

func (r *Redis) Clear(ctx context.Context) error {
	return r.client.FlushDB(ctx).Err()
}

func (r *Redis) Size(ctx context.Context) (int64, error) {
	return r.client.DBSize(ctx).Result()
}
