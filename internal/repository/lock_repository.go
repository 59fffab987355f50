package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrLockTimeout = errors.New("symbol lock not acquired")

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

const renewScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// ILockRepository serialises mutating runs per symbol. Lock blocks until the
// lock is held or ctx is done; the returned func releases it.
type ILockRepository interface {
	Lock(ctx context.Context, symbol string) (func(), error)
}

// RedisLockRepository holds a lease of ttl on the symbol key and renews it
// every ttl/3 until released, so a run may outlast ttl. ttl only bounds how
// long a crashed holder blocks the symbol.
type RedisLockRepository struct {
	client *redis.Client
	logger zerolog.Logger
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLockRepository  constructor
func NewRedisLockRepository(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisLockRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ttl = max(ttl, 30*time.Millisecond)
	return &RedisLockRepository{
		client: client,
		logger: logger,
		prefix: "reconciler:lock:",
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

func (r *RedisLockRepository) Lock(ctx context.Context, symbol string) (func(), error) {
	key := r.prefix + symbol
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, symbol, ctx.Err())
			}
			return nil, fmt.Errorf("error while locking %s: %w", symbol, err)
		}
		if ok {
			return r.hold(key, token), nil
		}

		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, symbol, ctx.Err())
		case <-timer.C:
		}
	}
}

// hold renews the lease in the background and returns the release func.
func (r *RedisLockRepository) hold(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(r.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !r.renew(key, token) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			r.release(key, token)
		})
	}
}

func (r *RedisLockRepository) renew(key, token string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
	defer cancel()
	n, err := r.client.Eval(ctx, renewScript, []string{key}, token, r.ttl.Milliseconds()).Int()
	if err != nil {
		// the next tick retries while the lease is still running
		r.logger.Warn().Err(err).Str("key", key).Msg("lock renewal failed")
		return true
	}
	if n == 0 {
		r.logger.Error().Str("key", key).Msg("lock lease lost before release")
		return false
	}
	return true
}

func (r *RedisLockRepository) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := r.client.Eval(ctx, releaseScript, []string{key}, token).Int()
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("lock release failed")
		return
	}
	if n == 0 {
		r.logger.Warn().Str("key", key).Msg("lock expired before release")
	}
}

// LocalLockRepository is the single-process variant used when no redis
// address is configured.
type LocalLockRepository struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLockRepository() *LocalLockRepository {
	return &LocalLockRepository{slots: make(map[string]chan struct{})}
}

func (l *LocalLockRepository) Lock(ctx context.Context, symbol string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[symbol]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[symbol] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, symbol, ctx.Err())
	}
}
