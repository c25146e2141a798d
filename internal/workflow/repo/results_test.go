package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/experience-engine/server/internal/core/error"
	"github.com/experience-engine/server/internal/workflow/model"
)

// fakeRedis overrides the two commands the store uses over an in-memory map.
type fakeRedis struct {
	redis.Cmdable
	data    map[string]string
	lastTTL time.Duration
	setErr  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = fmt.Sprintf("%s", value)
	f.lastTTL = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestResultKey(t *testing.T) {
	r := NewRedisResultStore(nil, 0)
	assert.Equal(t, "workflow:abc-123:result", r.resultKey("abc-123"))
}

func TestResultStoreRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	store := NewRedisResultStore(rdb, time.Hour)

	saved := &model.RunOutput{
		SessionID:            "s-round-trip",
		ClassificationType:   model.ClassificationManaged,
		ClassificationReason: "operator with pricing",
		Experience:           &model.Experience{Caption: "Paris in Three Days"},
		Evaluation:           &model.Evaluation{OverallScore: 92},
		TotalCostUSD:         0.42,
	}
	require.NoError(t, store.Save(context.Background(), saved.SessionID, saved))
	assert.Equal(t, time.Hour, rdb.lastTTL)

	got, err := store.Get(context.Background(), saved.SessionID)
	require.NoError(t, err)
	assert.Equal(t, saved.SessionID, got.SessionID)
	assert.Equal(t, model.ClassificationManaged, got.ClassificationType)
	require.NotNil(t, got.Experience)
	assert.Equal(t, "Paris in Three Days", got.Experience.Caption)
	require.NotNil(t, got.Evaluation)
	assert.Equal(t, 92, got.Evaluation.OverallScore)
	assert.InDelta(t, 0.42, got.TotalCostUSD, 1e-9)
}

func TestResultStoreMissingSessionIsNotFound(t *testing.T) {
	store := NewRedisResultStore(newFakeRedis(), time.Hour)

	_, err := store.Get(context.Background(), "no-such-session")
	require.Error(t, err)
	assert.Equal(t, 404, errx.StatusOf(err))
}

func TestResultStoreSaveFailureIsUpstream(t *testing.T) {
	rdb := newFakeRedis()
	rdb.setErr = fmt.Errorf("connection refused")
	store := NewRedisResultStore(rdb, time.Hour)

	err := store.Save(context.Background(), "s1", &model.RunOutput{SessionID: "s1"})
	require.Error(t, err)
	assert.Equal(t, 502, errx.StatusOf(err))
}
