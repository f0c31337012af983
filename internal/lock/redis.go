package lock

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua deletes the lock key only if it still holds the caller's token,
// so one holder can never release another holder's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// RedisConfig holds connection parameters for the shared lock.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	TLSEnabled bool
}

// NewRedisClient creates a go-redis client and pings it.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// Redis is a Locker shared by every replica pointed at the same Redis key.
// It is acquired with SETNX and a TTL and released with a token-checked Lua
// script. The TTL bounds how long a crashed holder can block the others.
type Redis struct {
	rdb      *redis.Client
	key      string
	ttl      time.Duration
	retry    time.Duration
	unlockSc *redis.Script
}

// NewRedis creates a Redis-backed Locker on key.
func NewRedis(rdb *redis.Client, key string, ttl time.Duration) *Redis {
	return &Redis{
		rdb:      rdb,
		key:      "lock:" + key,
		ttl:      ttl,
		retry:    10 * time.Millisecond,
		unlockSc: redis.NewScript(unlockLua),
	}
}

// TryLock makes a single acquire attempt and returns ErrLockHeld if another
// holder has the key.
func (l *Redis) TryLock(ctx context.Context) (func(), error) {
	token := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = l.unlockSc.Run(unlockCtx, l.rdb, []string{l.key}, token).Err()
	}, nil
}

// Lock polls TryLock until it succeeds or ctx is done.
func (l *Redis) Lock(ctx context.Context) (func(), error) {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		unlock, err := l.TryLock(ctx)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ Locker = (*Redis)(nil)
