package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainlease "rentverse/internal/domain/lease"
)

func TestCalendarLockMutualExclusion(t *testing.T) {
	lock := NewCalendarLock()

	release, err := lock.Acquire(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := lock.Acquire(ctx, "prop-1"); !errors.Is(err, domainlease.ErrLockTimeout) {
		t.Fatalf("second acquire err = %v, want ErrLockTimeout", err)
	}

	release()
	release2, err := lock.Acquire(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestCalendarLockPerProperty(t *testing.T) {
	lock := NewCalendarLock()

	r1, err := lock.Acquire(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("acquire prop-1: %v", err)
	}
	defer r1()

	// A different property's calendar is independent.
	r2, err := lock.Acquire(context.Background(), "prop-2")
	if err != nil {
		t.Fatalf("acquire prop-2: %v", err)
	}
	r2()
}

func TestCalendarLockReleaseIdempotent(t *testing.T) {
	lock := NewCalendarLock()

	release, err := lock.Acquire(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release()

	again, err := lock.Acquire(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	again()
}
