package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/experience-engine/server/internal/core/error"
	"github.com/experience-engine/server/internal/workflow/model"
	logx "github.com/experience-engine/server/pkg/logger"
)

// RedisResultStore persists finished run outputs keyed by session id.
type RedisResultStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisResultStore(rdb redis.Cmdable, ttl time.Duration) *RedisResultStore {
	return &RedisResultStore{rdb: rdb, ttl: ttl}
}

func (r *RedisResultStore) resultKey(sessionID string) string {
	return fmt.Sprintf("workflow:%s:result", sessionID)
}

func (r *RedisResultStore) Save(ctx context.Context, sessionID string, out *model.RunOutput) error {
	b, err := json.Marshal(out)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal run output")
		return fmt.Errorf("marshal run output: %w", err)
	}
	key := r.resultKey(sessionID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save run output to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisResultStore) Get(ctx context.Context, sessionID string) (*model.RunOutput, error) {
	key := r.resultKey(sessionID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to load run output from redis")
		}
		return nil, errx.WrapRedis(err)
	}

	var out model.RunOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to unmarshal run output")
		return nil, fmt.Errorf("unmarshal run output: %w", err)
	}
	return &out, nil
}
