package lease

import (
	"context"
	"testing"

	domainlease "rentverse/internal/domain/lease"
)

func TestBookedPeriodsQueryHandler(t *testing.T) {
	env := newTestEnv()
	env.seedProperty(t, "prop-1", "owner-1", true)
	env.enableAutoApprove(t)
	reqHandler := env.requestHandler()

	// Second lease created first so the projection has to sort.
	if _, err := reqHandler.Handle(context.Background(), requestCmd("lease-2", "prop-1", "tenant-2", date(2025, 7, 1), date(2025, 7, 10))); err != nil {
		t.Fatalf("seed lease-2: %v", err)
	}
	if _, err := reqHandler.Handle(context.Background(), requestCmd("lease-1", "prop-1", "tenant-1", date(2025, 6, 1), date(2025, 6, 10))); err != nil {
		t.Fatalf("seed lease-1: %v", err)
	}

	h := &BookedPeriodsHandler{UoWFactory: env.factory}
	result, err := h.Handle(context.Background(), BookedPeriodsQuery{
		PropertyID: "prop-1",
		From:       date(2025, 6, 1),
		To:         date(2025, 12, 31),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(result.Periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(result.Periods))
	}
	if !result.Periods[0].Start.Equal(date(2025, 6, 1)) {
		t.Errorf("periods not ordered by start: first = %v", result.Periods[0].Start)
	}
	for _, p := range result.Periods {
		if p.Status != string(domainlease.StatusApproved) {
			t.Errorf("period status = %s", p.Status)
		}
	}

	// Narrow window drops the July lease.
	narrow, err := h.Handle(context.Background(), BookedPeriodsQuery{
		PropertyID: "prop-1",
		From:       date(2025, 6, 1),
		To:         date(2025, 6, 30),
	})
	if err != nil {
		t.Fatalf("narrow window: %v", err)
	}
	if len(narrow.Periods) != 1 {
		t.Fatalf("got %d periods in narrow window, want 1", len(narrow.Periods))
	}
}

func TestBookedPeriodsEmptyCalendar(t *testing.T) {
	env := newTestEnv()
	env.seedProperty(t, "prop-1", "owner-1", true)

	h := &BookedPeriodsHandler{UoWFactory: env.factory}
	result, err := h.Handle(context.Background(), BookedPeriodsQuery{PropertyID: "prop-1", From: date(2025, 6, 1), To: date(2025, 12, 31)})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(result.Periods) != 0 {
		t.Errorf("got %d periods, want none", len(result.Periods))
	}
}
