package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"palsanalytix/internal/config"
	"palsanalytix/internal/models"
)

// RedisStore — общее TTL-хранилище pending-регистраций для работы
// сервиса в несколько инстансов.
type RedisStore struct {
	Db *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	const op = "cache.NewRedisStore"
	db := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDBInt(),
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &RedisStore{Db: db}, nil
}

func key(identifier string) string {
	return "pending_signup:" + identifier
}

func (s *RedisStore) Put(ctx context.Context, k string, value *models.PendingSignup, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Db.Set(ctx, key(k), jsonData, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, k string) (*models.PendingSignup, bool, error) {
	const op = "cache.RedisStore.Get"
	val, err := s.Db.Get(ctx, key(k)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	var p models.PendingSignup
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return &p, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, k string) error {
	return s.Db.Del(ctx, key(k)).Err()
}
