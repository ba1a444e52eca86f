package lock

import (
	"context"
	"sync"
)

type mutexScheduleLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewMutexScheduleLocker creates an in-process locker keyed by
// professional id. It pairs with the in-memory store, where all
// mutations happen in one process.
func NewMutexScheduleLocker() Locker {
	return &mutexScheduleLocker{
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *mutexScheduleLocker) WithScheduleLock(ctx context.Context, professionalID int64, fn func(ctx context.Context) error) error {
	mu := l.forProfessional(professionalID)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (l *mutexScheduleLocker) forProfessional(id int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[id] = mu
	}
	return mu
}
