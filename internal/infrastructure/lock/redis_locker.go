package lock

import (
	"context"
	"fmt"
	"time"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL    = 30 * time.Second
	defaultRetryDelay = 50 * time.Millisecond
)

// releaseScript deletes the lock key only if it still holds our token,
// so an expired lock reclaimed by another instance is never released here.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCaseLocker serializes case operations across instances using
// Redis SETNX locks with a TTL as crash protection
type RedisCaseLocker struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisCaseLocker creates a locker with its own Redis connection
func NewRedisCaseLocker(cfg config.RedisConfig) (*RedisCaseLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCaseLockerWithClient(client, ""), nil
}

// NewRedisCaseLockerWithClient creates a locker with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisCaseLockerWithClient(client *redis.Client, keyPrefix string) *RedisCaseLocker {
	if keyPrefix == "" {
		keyPrefix = "audit:case:lock:"
	}
	return &RedisCaseLocker{
		client:     client,
		keyPrefix:  keyPrefix,
		ttl:        defaultLockTTL,
		retryDelay: defaultRetryDelay,
	}
}

// Lock blocks until the case lock is acquired or the context is done.
// The returned function releases the lock.
func (l *RedisCaseLocker) Lock(ctx context.Context, caseID uuid.UUID) (func(), error) {
	key := l.keyPrefix + caseID.String()
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire case lock: %w", err)
		}
		if acquired {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}

		select {
		case <-time.After(l.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Ensure RedisCaseLocker implements CaseLocker
var _ auditapp.CaseLocker = (*RedisCaseLocker)(nil)
