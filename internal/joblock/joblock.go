// Package joblock keeps two worker replicas from running the same scheduled
// job for the same period at once.
package joblock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when another process holds the lock.
var ErrNotObtained = errors.New("job lock held by another process")

const keyPrefix = "finledger:job"

// Locker hands out exclusive leases on job keys.
type Locker interface {
	// Obtain returns a release func, or ErrNotObtained when the key is taken.
	Obtain(ctx context.Context, key string) (func(context.Context), error)
}

// Key builds the lock key for a job run, e.g. "finledger:job:amortize:2025-03".
func Key(job, period string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, job, period)
}

// RedisLocker leases keys in Redis with a fixed TTL.
type RedisLocker struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker connects to redisURL (redis://host:port/db) and checks the
// connection.
func NewRedisLocker(ctx context.Context, redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLocker{
		client: client,
		locker: redislock.New(client),
		ttl:    ttl,
	}, nil
}

func (l *RedisLocker) Obtain(ctx context.Context, key string) (func(context.Context), error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(ctx context.Context) {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.WarnContext(ctx, "Failed to release job lock", "key", key, "error", err)
		}
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Noop grants every lock. It is used when no Redis is configured.
type Noop struct{}

func (Noop) Obtain(context.Context, string) (func(context.Context), error) {
	return func(context.Context) {}, nil
}

// Run executes fn while holding key. It reports false without calling fn
// when another process holds the key.
func Run(ctx context.Context, l Locker, key string, fn func(context.Context) error) (bool, error) {
	release, err := l.Obtain(ctx, key)
	if errors.Is(err, ErrNotObtained) {
		slog.InfoContext(ctx, "Job skipped, lock held elsewhere", "key", key)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer release(context.WithoutCancel(ctx))
	return true, fn(ctx)
}
