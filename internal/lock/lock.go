package lock

import (
	"context"
	"errors"
)

var ErrLockNotAcquired = errors.New("schedule lock not acquired")

// Locker guards the booking critical section for one professional's
// schedule: the overlap check and the insert must not interleave with
// another booking for the same professional.
type Locker interface {
	WithScheduleLock(ctx context.Context, professionalID int64, fn func(ctx context.Context) error) error
}
