package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mandiprice/internal/agmarknet"
)

// RedisStore keeps durable cache records as JSON values under
// marketCache:{state}:{commodity}. No TTL is set: records live until the
// next warm overwrites them.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, now: time.Now}, nil
}

func redisKey(state, commodity string) string {
	return fmt.Sprintf("marketCache:%s:%s", state, commodity)
}

func (s *RedisStore) Read(ctx context.Context, state, commodity string) (*DurableRecord, error) {
	data, err := s.client.Get(ctx, redisKey(state, commodity)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read market cache: %w", err)
	}

	var rec DurableRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode cached payload: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Write(ctx context.Context, state, commodity string, payload *agmarknet.Response) error {
	now := s.now()
	rec := DurableRecord{
		Data:        payload,
		Timestamp:   now.UnixMilli(),
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(state, commodity), data, 0).Err(); err != nil {
		return fmt.Errorf("write market cache: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
