package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	domainlease "rentverse/internal/domain/lease"
)

func (env *testEnv) decideHandler() *DecideLeaseHandler {
	return &DecideLeaseHandler{
		UoWFactory: env.factory,
		Lock:       env.lock,
		Outbox:     env.outbox,
		Clock:      testNow,
	}
}

func (env *testEnv) seedLease(t *testing.T, id string, start, end time.Time) *domainlease.Lease {
	t.Helper()
	env.seedProperty(t, "prop-1", "owner-1", true)
	h := env.requestHandler()
	result, err := h.Handle(context.Background(), requestCmd(id, "prop-1", "tenant-1", start, end))
	if err != nil {
		t.Fatalf("seed lease: %v", err)
	}
	l, err := env.leases.ByID(context.Background(), domainlease.LeaseID(result.LeaseID))
	if err != nil {
		t.Fatalf("load seeded lease: %v", err)
	}
	return l
}

func TestApproveLease(t *testing.T) {
	env := newTestEnv()
	env.seedLease(t, "lease-1", date(2025, 6, 1), date(2025, 6, 10))

	result, err := env.decideHandler().HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Status != string(domainlease.StatusApproved) {
		t.Errorf("status = %s", result.Status)
	}

	saved, err := env.leases.ByID(context.Background(), "lease-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if saved.Status != domainlease.StatusApproved {
		t.Errorf("persisted status = %s", saved.Status)
	}
}

func TestApproveLeaseAccessDenied(t *testing.T) {
	env := newTestEnv()
	env.seedLease(t, "lease-1", date(2025, 6, 1), date(2025, 6, 10))

	_, err := env.decideHandler().HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "lease-1", OwnerID: "someone-else"})
	if !errors.Is(err, domainlease.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestApproveLeaseNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.decideHandler().HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "missing", OwnerID: "owner-1"})
	if !errors.Is(err, domainlease.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApproveLeaseTwice(t *testing.T) {
	env := newTestEnv()
	env.seedLease(t, "lease-1", date(2025, 6, 1), date(2025, 6, 10))
	h := env.decideHandler()

	if _, err := h.HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1"}); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := h.HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1"})
	if !errors.Is(err, domainlease.ErrInvalidState) {
		t.Fatalf("second approve err = %v, want ErrInvalidState", err)
	}
}

func TestApproveLeaseRechecksAvailability(t *testing.T) {
	env := newTestEnv()
	env.seedLease(t, "lease-1", date(2025, 6, 1), date(2025, 6, 10))
	h := env.decideHandler()

	// A second overlapping request arrives and gets approved first.
	reqHandler := env.requestHandler()
	if _, err := reqHandler.Handle(context.Background(), requestCmd("lease-2", "prop-1", "tenant-2", date(2025, 6, 5), date(2025, 6, 15))); err != nil {
		t.Fatalf("competing request: %v", err)
	}
	if _, err := h.HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "lease-2", OwnerID: "owner-1"}); err != nil {
		t.Fatalf("approve competing: %v", err)
	}

	_, err := h.HandleApprove(context.Background(), ApproveLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1"})
	if !errors.Is(err, domainlease.ErrDateConflict) {
		t.Fatalf("err = %v, want ErrDateConflict after calendar changed", err)
	}

	first, err := env.leases.ByID(context.Background(), "lease-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.Status != domainlease.StatusPending {
		t.Errorf("failed approval must not mutate the lease, status = %s", first.Status)
	}
}

func TestRejectLease(t *testing.T) {
	env := newTestEnv()
	env.seedLease(t, "lease-1", date(2025, 6, 1), date(2025, 6, 10))
	h := env.decideHandler()

	if _, err := h.HandleReject(context.Background(), RejectLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1"}); !errors.Is(err, domainlease.ErrReasonRequired) {
		t.Fatalf("empty reason err = %v, want ErrReasonRequired", err)
	}

	result, err := h.HandleReject(context.Background(), RejectLeaseCommand{LeaseID: "lease-1", OwnerID: "owner-1", Reason: "renovation planned"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Status != string(domainlease.StatusRejected) {
		t.Errorf("status = %s", result.Status)
	}

	// Rejected leases free the calendar: the same dates can be taken again.
	if _, err := env.requestHandler().Handle(context.Background(), requestCmd("lease-2", "prop-1", "tenant-2", date(2025, 6, 1), date(2025, 6, 10))); err != nil {
		t.Fatalf("re-request after rejection: %v", err)
	}
}
