//go:build integration

package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
)

func setupRedis(t testing.TB) *redis.Client {
	t.Helper()

	ctx := context.Background()

	redisCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := redisCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := redisCont.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client, err := NewRedisClient(ctx, &redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestRedisBackend(t *testing.T) {
	client := setupRedis(t)
	backend := NewRedisBackend(client, WithMaxRetries(1))
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		data, err := backend.Get(ctx, "missing")

		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, backend.Set(ctx, "key", []byte("value")))

		data, err := backend.Get(ctx, "key")
		assert.NoError(t, err)
		assert.Equal(t, []byte("value"), data)

		require.NoError(t, backend.Delete(ctx, "key"))

		data, err = backend.Get(ctx, "key")
		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("url repository", func(t *testing.T) {
		repo := NewURLRepository(backend, WithPrefix("it_"))
		now := time.UnixMilli(1_700_000_000_000)

		require.NoError(t, repo.Save(ctx, &entity.URL{
			ID:              "a",
			ShortCode:       "abc123",
			OriginalURL:     "https://example.com",
			ValidityMinutes: 1,
			CreatedAt:       now,
			ExpiresAt:       entity.ExpiryFor(now, 1),
		}))
		require.NoError(t, repo.SaveClick(ctx, "abc123", entity.Click{Timestamp: now}))

		removed, err := repo.RemoveExpired(ctx, now.Add(2*time.Minute))
		assert.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		clicks, err := repo.ListClicks(ctx, "abc123")
		assert.NoError(t, err)
		assert.Empty(t, clicks)
	})
}
