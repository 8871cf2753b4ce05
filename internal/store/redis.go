package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore stores values as plain Redis strings without expiry.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.NewStoreError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return NewRedisStoreWithClient(client, logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("Store get failed", zap.String("key", key), zap.Error(err))
		return "", false, apperrors.NewStoreError("get failed", "get", key, err)
	}
	return value, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		r.logger.Error("Store set failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("set failed", "set", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Store delete failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("delete failed", "del", key, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	r.logger.Info("Redis disconnected")
	return nil
}

func (r *RedisStore) IsConnected(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}
