package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ctutimetable-backend/lib/timetable"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "timetable"

// Redis is a Cache shared between server replicas, expiry is left to redis.
type Redis struct {
	client  redis.UniversalClient
	metrics instruments
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{
		client:  client,
		metrics: newInstruments("redis"),
	}
}

// DialRedis connects to the redis server at url (redis://[:password@]host:port/db).
func DialRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.InfoContext(ctx, "connected to redis result cache", "addr", opts.Addr, "db", opts.DB)
	return NewRedis(client), nil
}

func redisKey(key Key) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key.String())
}

func (r *Redis) Get(ctx context.Context, key Key) ([]timetable.StudyGroup, bool) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.metrics.lookup(ctx, false)
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "redis get failed", "key", key.String(), "err", err)
		r.metrics.lookup(ctx, false)
		return nil, false
	}

	var value []timetable.StudyGroup
	if err := json.Unmarshal(data, &value); err != nil {
		slog.WarnContext(ctx, "failed to decode cached groups", "key", key.String(), "err", err)
		r.metrics.lookup(ctx, false)
		return nil, false
	}
	r.metrics.lookup(ctx, true)
	return value, true
}

func (r *Redis) Put(ctx context.Context, key Key, value []timetable.StudyGroup, ttl time.Duration) {
	if ttl <= 0 {
		slog.WarnContext(ctx, "refusing to cache with non-positive ttl", "key", key.String(), "ttl", ttl)
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "failed to encode groups", "key", key.String(), "err", err)
		return
	}
	if err := r.client.Set(ctx, redisKey(key), data, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "redis set failed", "key", key.String(), "err", err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
