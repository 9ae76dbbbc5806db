package subjectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisHashKey = "subjects"

// Redis stores names as fields of a single hash.
type Redis struct {
	client redis.UniversalClient
}

func (s *Redis) Init(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	s.client = client
	return nil
}

func (s *Redis) Insert(ctx context.Context, subjectId, name string) error {
	return s.client.HSet(ctx, redisHashKey, subjectId, name).Err()
}

func (s *Redis) Find(ctx context.Context, subjectId string) (string, bool, error) {
	name, err := s.client.HGet(ctx, redisHashKey, subjectId).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *Redis) FindAll(ctx context.Context) (map[string]string, error) {
	return s.client.HGetAll(ctx, redisHashKey).Result()
}

func (s *Redis) Close() error {
	return s.client.Close()
}
