package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/ride-sharing/pkg/config"
	"github.com/richxcame/ride-sharing/pkg/locks"
	"github.com/richxcame/ride-sharing/pkg/logger"
	"github.com/richxcame/ride-sharing/pkg/resilience"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

var errLockHeld = errors.New("lock held by another owner")

// Locker is a distributed locks.Locker built on SET NX PX. Each key holds
// a random token so that only the owner can release it; the TTL bounds how
// long a crashed owner can block others.
type Locker struct {
	client   redis.UniversalClient
	breaker  *resilience.CircuitBreaker
	prefix   string
	ttl      time.Duration
	wait     time.Duration
	retry    time.Duration
	newToken func() string
}

// NewLocker creates a Redis-backed locker
func NewLocker(client redis.UniversalClient, cfg config.LockConfig, breaker *resilience.CircuitBreaker) *Locker {
	l := &Locker{
		client:   client,
		breaker:  breaker,
		prefix:   cfg.Prefix,
		ttl:      cfg.TTL(),
		wait:     cfg.Wait(),
		retry:    cfg.RetryInterval(),
		newToken: uuid.NewString,
	}
	if l.ttl <= 0 {
		l.ttl = 10 * time.Second
	}
	if l.wait <= 0 {
		l.wait = 3 * time.Second
	}
	if l.retry <= 0 {
		l.retry = 25 * time.Millisecond
	}
	return l
}

// Acquire takes every key in sorted order, waiting up to the configured
// wait time. Keys already taken are released if a later one fails.
func (l *Locker) Acquire(ctx context.Context, keys ...string) (locks.ReleaseFunc, error) {
	keys = locks.SortKeys(keys)
	token := l.newToken()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.acquireOne(ctx, l.prefix+key, token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, l.prefix+key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(held, token) })
	}, nil
}

func (l *Locker) acquireOne(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		err := l.trySet(ctx, key, token)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errLockHeld) {
			return err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", locks.ErrLockTimeout, key)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) trySet(ctx context.Context, key, token string) error {
	op := func(ctx context.Context) (interface{}, error) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("set lock %s: %w", key, err)
		}
		if !ok {
			return nil, errLockHeld
		}
		return nil, nil
	}

	if l.breaker == nil {
		_, err := op(ctx)
		return err
	}
	_, err := l.breaker.Execute(ctx, op)
	return err
}

// release runs in reverse order on a fresh context so that a cancelled
// request still frees its keys
func (l *Locker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := l.client.Eval(ctx, releaseScript, []string{keys[i]}, token).Err(); err != nil {
			logger.Warn("failed to release lock, it will expire with its TTL",
				zap.String("key", keys[i]),
				zap.Error(err),
			)
		}
	}
}

// IsLockContention reports whether err only means the key was busy, which
// must not count as a Redis failure in the breaker
func IsLockContention(err error) bool {
	return errors.Is(err, errLockHeld)
}
