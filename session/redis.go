package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisKeyPrefix = "prevozkop:session:"

// RedisStore keeps sessions in Redis with TTL, so several API instances can
// share logins.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")
	return rdb, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Data, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, false, nil
	}
	if err != nil {
		return Data{}, false, err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, false, fmt.Errorf("decode session: %w", err)
	}
	return data, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+id, raw, s.ttl).Err()
}

func (s *RedisStore) Touch(ctx context.Context, id string) error {
	return s.client.Expire(ctx, redisKeyPrefix+id, s.ttl).Err()
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
