package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const defaultMaxRetries = 3

// RedisBackend stores values in redis. Every call is retried with exponential
// backoff up to maxRetries times.
type RedisBackend struct {
	client     *redis.Client
	maxRetries uint64
}

type RedisOption func(*RedisBackend)

func WithMaxRetries(n int) RedisOption {
	return func(b *RedisBackend) {
		if n >= 0 {
			b.maxRetries = uint64(n)
		}
	}
}

func NewRedisBackend(client *redis.Client, opts ...RedisOption) *RedisBackend {
	b := &RedisBackend{
		client:     client,
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewRedisClient connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	const op = "adapter.repository.kv.NewRedisClient"

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return client, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "adapter.repository.kv.RedisBackend.Get"

	data, err := backoff.RetryWithData(func() ([]byte, error) {
		data, err := b.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	}, b.policy(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	const op = "adapter.repository.kv.RedisBackend.Set"

	err := backoff.Retry(func() error {
		return b.client.Set(ctx, key, value, 0).Err()
	}, b.policy(ctx))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	const op = "adapter.repository.kv.RedisBackend.Delete"

	err := backoff.Retry(func() error {
		return b.client.Del(ctx, keys...).Err()
	}, b.policy(ctx))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *RedisBackend) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), b.maxRetries), ctx)
}
