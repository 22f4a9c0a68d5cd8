package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/flashdealz-backend/pkg/redis"
)

const defaultLockTTL = 2 * time.Minute

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Lock is a SETNX lease keeping scheduler cycles exclusive across worker
// instances. Release is owner-matched so a stale holder whose lease
// expired cannot free the current owner's lock.
type Lock struct {
	store lockStore
	key   string
	ttl   time.Duration
	owner string
}

// NewLock builds a store-backed scheduler lock named after the loop it
// guards.
func NewLock(store lockStore, name string, ttl time.Duration) (*Lock, error) {
	if store == nil {
		return nil, errors.New("counter store required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{
		store: store,
		key:   fmt.Sprintf("fd:cron:lock:%s", name),
		ttl:   ttl,
	}, nil
}

// Acquire tries to own the lease for the configured TTL.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lease only if this holder still owns it.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
