package redisclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type localDayLocker struct {
	mu    sync.Mutex
	locks map[string]*dayLock
}

type dayLock struct {
	ch      chan struct{}
	waiters int
}

// NewLocalDayLocker serializes bookings per (doctor, date) inside one process.
// It is used when no Redis is configured.
func NewLocalDayLocker() Locker {
	return &localDayLocker{locks: make(map[string]*dayLock)}
}

func (l *localDayLocker) WithDayLock(ctx context.Context, doctorID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	key := dayLockKey(doctorID, date)

	l.mu.Lock()
	dl, ok := l.locks[key]
	if !ok {
		dl = &dayLock{ch: make(chan struct{}, 1)}
		l.locks[key] = dl
	}
	dl.waiters++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		dl.waiters--
		if dl.waiters == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}()

	select {
	case dl.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-dl.ch }()

	return fn(ctx)
}
