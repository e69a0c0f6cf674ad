package memory

import (
	"context"
	"testing"
	"time"

	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/money"
)

func TestPropertySaveClearsPendingEvents(t *testing.T) {
	repo := NewPropertyRepository()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:            "prop-1",
		OwnerID:       "owner-1",
		Title:         "Harbor flat",
		RentAmount:    money.Must(90000, "USD"),
		InitialStatus: domainproperty.StatusPendingReview,
		Now:           now,
	})
	if err != nil {
		t.Fatalf("new property: %v", err)
	}
	if len(prop.PendingEvents()) == 0 {
		t.Fatal("constructor recorded no events, test needs a dirty aggregate")
	}
	if err := repo.Save(context.Background(), prop); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := repo.ByID(context.Background(), "prop-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	// The caller drains events into the outbox; a reloaded aggregate must
	// never replay them.
	if got := reloaded.PendingEvents(); len(got) != 0 {
		t.Fatalf("reloaded property carries %d stale events", len(got))
	}
}

func TestLeaseSaveClearsPendingEvents(t *testing.T) {
	repo := NewLeaseRepository()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(now.AddDate(0, 1, 0), now.AddDate(0, 2, 0))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	l, err := domainlease.NewLease(domainlease.CreateParams{
		ID:         "lease-1",
		PropertyID: "prop-1",
		TenantID:   "tenant-1",
		OwnerID:    "owner-1",
		Range:      dr,
		RentAmount: money.Must(90000, "USD"),
		Now:        now,
	})
	if err != nil {
		t.Fatalf("new lease: %v", err)
	}
	if err := repo.Save(context.Background(), l); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := repo.ByID(context.Background(), "lease-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.PendingEvents(); len(got) != 0 {
		t.Fatalf("reloaded lease carries %d stale events", len(got))
	}
}
