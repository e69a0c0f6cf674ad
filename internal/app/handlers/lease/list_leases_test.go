package lease

import (
	"context"
	"errors"
	"testing"

	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
)

func TestMyLeasesQueryHandler(t *testing.T) {
	env := newTestEnv()
	env.seedProperty(t, "prop-1", "owner-1", true)
	env.seedProperty(t, "prop-2", "owner-2", true)
	reqHandler := env.requestHandler()

	for _, cmd := range []RequestLeaseCommand{
		requestCmd("lease-1", "prop-1", "tenant-1", date(2025, 6, 1), date(2025, 6, 10)),
		requestCmd("lease-2", "prop-2", "tenant-1", date(2025, 7, 1), date(2025, 7, 10)),
		requestCmd("lease-3", "prop-1", "tenant-2", date(2025, 8, 1), date(2025, 8, 10)),
	} {
		if _, err := reqHandler.Handle(context.Background(), cmd); err != nil {
			t.Fatalf("seed %s: %v", cmd.CommandID, err)
		}
	}

	h := &MyLeasesHandler{UoWFactory: env.factory}
	result, err := h.Handle(context.Background(), MyLeasesQuery{TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("got %d leases, want 2", len(result.Items))
	}
	for _, item := range result.Items {
		if item.Status != string(domainlease.StatusPending) {
			t.Errorf("lease %s status = %s, want PENDING", item.LeaseID, item.Status)
		}
		if item.Currency != "USD" {
			t.Errorf("lease %s currency = %s, want USD", item.LeaseID, item.Currency)
		}
	}

	if _, err := h.Handle(context.Background(), MyLeasesQuery{}); !errors.Is(err, domainlease.ErrTenantRequired) {
		t.Fatalf("empty tenant err = %v, want ErrTenantRequired", err)
	}
}

func TestPropertyLeasesQueryHandler(t *testing.T) {
	env := newTestEnv()
	env.seedProperty(t, "prop-1", "owner-1", true)
	reqHandler := env.requestHandler()

	if _, err := reqHandler.Handle(context.Background(), requestCmd("lease-1", "prop-1", "tenant-1", date(2025, 6, 1), date(2025, 6, 10))); err != nil {
		t.Fatalf("seed lease: %v", err)
	}

	decide := env.decideHandler()
	if _, err := decide.HandleReject(context.Background(), RejectLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1", Reason: "maintenance"}); err != nil {
		t.Fatalf("reject lease: %v", err)
	}

	h := &PropertyLeasesHandler{UoWFactory: env.factory}
	result, err := h.Handle(context.Background(), PropertyLeasesQuery{PropertyID: "prop-1", OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	// Rejected leases stay visible to the owner, unlike the calendar view.
	if len(result.Items) != 1 {
		t.Fatalf("got %d leases, want 1", len(result.Items))
	}
	if result.Items[0].Status != string(domainlease.StatusRejected) {
		t.Errorf("status = %s, want REJECTED", result.Items[0].Status)
	}

	if _, err := h.Handle(context.Background(), PropertyLeasesQuery{PropertyID: "prop-1", OwnerID: "someone-else"}); !errors.Is(err, domainlease.ErrAccessDenied) {
		t.Fatalf("foreign owner err = %v, want ErrAccessDenied", err)
	}
	if _, err := h.Handle(context.Background(), PropertyLeasesQuery{PropertyID: "missing", OwnerID: "owner-1"}); !errors.Is(err, domainproperty.ErrNotFound) {
		t.Fatalf("missing property err = %v, want property.ErrNotFound", err)
	}
}
