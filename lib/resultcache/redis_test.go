package resultcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedis(client)
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupMiniRedis(t)
	key := Key{Semester: 1, Year: 2024, SubjectId: "CT101"}

	cache.Put(ctx, key, ct101, 60*time.Second)
	require.True(t, mr.Exists("timetable:1:2024:CT101"))

	value, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Equal(t, ct101, value)

	mr.FastForward(60 * time.Second)
	_, ok = cache.Get(ctx, key)
	require.False(t, ok)
	require.False(t, mr.Exists("timetable:1:2024:CT101"))
}

func TestRedisMissesOnGarbage(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupMiniRedis(t)

	require.NoError(t, mr.Set("timetable:1:2024:CT101", "not json"))
	_, ok := cache.Get(ctx, Key{Semester: 1, Year: 2024, SubjectId: "CT101"})
	require.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	defer client.Close()
	cache := NewRedis(client)
	key := Key{Semester: 1, Year: 2024, SubjectId: "CT101"}

	cache.Put(ctx, key, ct101, time.Minute)
	_, ok := cache.Get(ctx, key)
	require.False(t, ok)
}

func TestDialRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cache, err := DialRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer cache.Close()

	_, err = DialRedis(ctx, "not a url")
	require.Error(t, err)
}
