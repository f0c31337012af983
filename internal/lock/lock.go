// Package lock provides the writer lock that serializes every mutating
// ledger operation.
package lock

import (
	"context"
	"errors"
)

// ErrLockHeld is returned when a non-blocking acquire finds the lock taken.
var ErrLockHeld = errors.New("lock already held")

// Locker hands out the single writer lock. The returned unlock function is
// safe to call more than once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Local is an in-process Locker. Waiting respects context cancellation.
type Local struct {
	ch chan struct{}
}

// NewLocal creates an unlocked Local.
func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

func (l *Local) Lock(ctx context.Context) (func(), error) {
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-l.ch
	}, nil
}

var _ Locker = (*Local)(nil)
