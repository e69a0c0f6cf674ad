package lease

import (
	"context"
	"errors"

	"rentverse/internal/domain/property"
)

// ErrLockTimeout is an infrastructure error: the caller gave up waiting for
// the property calendar lock. It is retryable and must not be reported as a
// date conflict.
var ErrLockTimeout = errors.New("lease: timed out acquiring calendar lock")

// CalendarLock serializes check-then-act sequences on a single property's
// calendar. Exclusion is owned by the storage layer: the in-memory
// implementation uses keyed semaphores, the Mongo implementation an advisory
// lock document. Acquire blocks until the lock is held or ctx expires.
type CalendarLock interface {
	Acquire(ctx context.Context, propertyID property.PropertyID) (release func(), err error)
}
