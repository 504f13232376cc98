// Package locks provides short-lived exclusive leases keyed by resource.
package locks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrHeld is returned when another owner holds the lease.
var ErrHeld = errors.New("lock held by another owner")

// Lease is an acquired lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out leases that expire after ttl even if never released.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// OrderKey scopes a lock to one outstanding order.
func OrderKey(orderID uuid.UUID) string {
	return "outstanding_order:" + orderID.String()
}

type redisStore interface {
	LockKey(scope, id string) string
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)
}

// RedisLocker implements Locker with SET NX plus an owner token, so only the
// holder can release.
type RedisLocker struct {
	client redisStore
	scope  string
}

func NewRedisLocker(client redisStore, scope string) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	if scope == "" {
		return nil, errors.New("lock scope is required")
	}
	return &RedisLocker{client: client, scope: scope}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	fullKey := l.client.LockKey(l.scope, key)
	owner := uuid.NewString()
	ok, err := l.client.AcquireLock(ctx, fullKey, owner, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &redisLease{client: l.client, key: fullKey, owner: owner}, nil
}

type redisLease struct {
	client redisStore
	key    string
	owner  string
	once   sync.Once
	err    error
}

func (l *redisLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		if _, err := l.client.ReleaseLock(ctx, l.key, l.owner); err != nil {
			l.err = fmt.Errorf("release %s: %w", l.key, err)
		}
	})
	return l.err
}

// MemoryLocker is an in-process Locker for tests and single-instance runs.
type MemoryLocker struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]memoryHold
}

type memoryHold struct {
	owner     string
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{now: time.Now, held: map[string]memoryHold{}}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if hold, ok := l.held[key]; ok && now.Before(hold.expiresAt) {
		return nil, ErrHeld
	}
	owner := uuid.NewString()
	l.held[key] = memoryHold{owner: owner, expiresAt: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, owner: owner}, nil
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	owner  string
}

func (l *memoryLease) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	if hold, ok := l.locker.held[l.key]; ok && hold.owner == l.owner {
		delete(l.locker.held, l.key)
	}
	return nil
}
