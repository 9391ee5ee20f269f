package imports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when the budget lock could not be taken before the
// context expired.
var ErrLockBusy = errors.New("imports: budget is locked by another import")

// Locker serialises commits to the same budget. Commits to different budgets
// never contend.
type Locker interface {
	Lock(ctx context.Context, budgetID uint) (unlock func(), err error)
}

// MemoryLocker is a per-process Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[uint]chan struct{}
}

// NewMemoryLocker creates an in-process Locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[uint]chan struct{})}
}

// Lock waits for the budget's slot or until ctx is done.
func (l *MemoryLocker) Lock(ctx context.Context, budgetID uint) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[budgetID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[budgetID] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ErrLockBusy
	}
}

// RedisLocker shares budget locks between API instances.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a Locker backed by redis. ttl bounds how long a
// crashed holder can block the budget.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, retry: 50 * time.Millisecond}
}

// Lock retries until the lock is obtained or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, budgetID uint) (func(), error) {
	key := fmt.Sprintf("import:budget:%d", budgetID)
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, ErrLockBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain import lock: %w", err)
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
