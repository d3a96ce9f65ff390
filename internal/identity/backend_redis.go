package identity

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisBackend stores values under prefix:key
// RedisBackend 以 prefix:key 存储
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisUniversalClient creates a universal client from a redis:// url
// NewRedisUniversalClient 根据 redis:// 地址创建客户端
func NewRedisUniversalClient(redisURL string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{opts.Addr},
		DB:           opts.DB,
		Username:     opts.Username,
		Password:     opts.Password,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
	}), nil
}

// NewRedisBackend wraps a client, prefix defaults to "controller"
// NewRedisBackend 包装客户端，prefix 默认为 "controller"
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "controller"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) key(k string) string {
	return b.prefix + ":" + k
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, b.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get")
	}
	return v, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	return errors.Wrap(b.client.Set(ctx, b.key(key), value, 0).Err(), "redis set")
}

// Close releases the client
// Close 释放客户端
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) Name() string { return "redis" }
