package news_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/bloodlink/internal/app/system/news"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	kv := news.NewRedisKV(rdb)
	ctx := context.Background()

	_, err := kv.Get(ctx, "news:health")
	assert.ErrorIs(t, err, news.ErrCacheMiss)

	require.NoError(t, kv.Set(ctx, "news:health", `[{"title":"x"}]`, 10*time.Minute))
	got, err := kv.Get(ctx, "news:health")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"x"}]`, got)
	assert.Equal(t, 10*time.Minute, mr.TTL("news:health"))

	mr.FastForward(11 * time.Minute)
	_, err = kv.Get(ctx, "news:health")
	assert.ErrorIs(t, err, news.ErrCacheMiss)
}
