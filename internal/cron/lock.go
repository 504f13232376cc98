package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/restaurant-backend/internal/locks"
)

const defaultLockTTL = 30 * time.Minute

// Lock coordinates exclusive cron runs.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LeaseLock implements Lock on top of a shared Locker so the cron worker and
// the API use the same owner-token semantics.
type LeaseLock struct {
	locker locks.Locker
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	lease locks.Lease
}

// NewLeaseLock constructs a lock for one cron key.
func NewLeaseLock(locker locks.Locker, key string, ttl time.Duration) (*LeaseLock, error) {
	if locker == nil {
		return nil, errors.New("locker required for cron lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &LeaseLock{locker: locker, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *LeaseLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lease, err := l.locker.Acquire(ctx, l.key, l.ttl)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return false, nil
		}
		return false, fmt.Errorf("acquire cron lock: %w", err)
	}
	l.lease = lease
	return true, nil
}

// Release frees the lock if this instance holds it.
func (l *LeaseLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lease == nil {
		return nil
	}
	err := l.lease.Release(ctx)
	l.lease = nil
	return err
}
