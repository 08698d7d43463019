// Package locks serializes transitions on the same case ahead of the database
// transaction.
package locks

import (
	"context"
	"sync"
	"time"
)

// UnlockFunc releases a held lock.
type UnlockFunc func(ctx context.Context) error

type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

// Local is an in-process Locker. The ttl is ignored: a held key stays held
// until its UnlockFunc runs.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{held: map[string]chan struct{}{}}
}

func (l *Local) Lock(ctx context.Context, key string, _ time.Duration) (UnlockFunc, error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

// Noop never blocks.
type Noop struct{}

func (Noop) Lock(context.Context, string, time.Duration) (UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}
