package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/octobees/portal/internal/repository"
)

// ErrNotFound is returned by a Backend when the id is unknown or expired.
var ErrNotFound = errors.New("session: not found")

// Backend persists encoded session payloads by id.
type Backend interface {
	Load(ctx context.Context, id string) (string, error)
	Store(ctx context.Context, id, data string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// Purger removes expired sessions in bulk.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// PostgresBackend keeps sessions in the application database.
type PostgresBackend struct {
	repo repository.SessionsRepository
}

// NewPostgresBackend wraps a sessions repository.
func NewPostgresBackend(repo repository.SessionsRepository) *PostgresBackend {
	return &PostgresBackend{repo: repo}
}

func (b *PostgresBackend) Load(ctx context.Context, id string) (string, error) {
	data, err := b.repo.Find(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return "", ErrNotFound
	}
	return data, err
}

func (b *PostgresBackend) Store(ctx context.Context, id, data string, expiresAt time.Time) error {
	return b.repo.Upsert(ctx, id, data, expiresAt)
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	return b.repo.Delete(ctx, id)
}

// Purge deletes rows whose expiry has passed.
func (b *PostgresBackend) Purge(ctx context.Context) (int64, error) {
	return b.repo.DeleteExpired(ctx)
}

// RedisBackend keeps sessions as expiring redis keys.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBackend stores keys as <prefix><id>; an empty prefix defaults to "session:".
func NewRedisBackend(client redis.Cmdable, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) Load(ctx context.Context, id string) (string, error) {
	data, err := b.client.Get(ctx, b.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Store(ctx context.Context, id, data string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return b.Delete(ctx, id)
	}
	if err := b.client.Set(ctx, b.prefix+id, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, b.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
