package storage

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps seen records and settings as plain redis keys under a
// configurable prefix. Keys carry no expiry.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects to the configured redis server.
func NewRedisStorage(config Config) (*RedisStorage, error) {
	if config.Redis.Addr == "" {
		return nil, fmt.Errorf("address is required for redis storage")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return newRedisStorage(client, config.Redis.KeyPrefix), nil
}

func newRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) seenKey(key models.SeenKey) string {
	return r.prefix + "seen:" + key.String()
}

func (r *RedisStorage) settingKey(name string) string {
	return r.prefix + "setting:" + name
}

// GetSeen returns the record stored for key.
func (r *RedisStorage) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	data, err := r.client.Get(ctx, r.seenKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get seen record %s: %w", key, err)
	}
	return unmarshalRecord(data)
}

// SetSeen stores or replaces the record for key.
func (r *RedisStorage) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	data, err := marshalRecord(record)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.seenKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save seen record %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the value stored under name.
func (r *RedisStorage) GetSetting(ctx context.Context, name string) (string, error) {
	value, err := r.client.Get(ctx, r.settingKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", name, err)
	}
	return value, nil
}

// SetSetting stores value under name.
func (r *RedisStorage) SetSetting(ctx context.Context, name, value string) error {
	if err := r.client.Set(ctx, r.settingKey(name), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", name, err)
	}
	return nil
}

// Ping verifies the redis server is reachable.
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
