package memory

import (
	"context"
	"sync"

	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
)

// CalendarLock serializes calendar writers per property with one-slot
// channels. Acquire blocks until the slot frees or ctx expires, surfacing
// the retryable ErrLockTimeout rather than a domain error.
type CalendarLock struct {
	mu    sync.Mutex
	slots map[domainproperty.PropertyID]chan struct{}
}

func NewCalendarLock() *CalendarLock {
	return &CalendarLock{slots: make(map[domainproperty.PropertyID]chan struct{})}
}

func (l *CalendarLock) Acquire(ctx context.Context, propertyID domainproperty.PropertyID) (func(), error) {
	slot := l.slot(propertyID)
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-slot })
		}, nil
	case <-ctx.Done():
		return nil, domainlease.ErrLockTimeout
	}
}

func (l *CalendarLock) slot(propertyID domainproperty.PropertyID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[propertyID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[propertyID] = slot
	}
	return slot
}

var _ domainlease.CalendarLock = (*CalendarLock)(nil)
