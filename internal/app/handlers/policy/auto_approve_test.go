package policy

import (
	"context"
	"testing"
	"time"

	"rentverse/internal/infra/storage/memory"
)

func newFactory() (memory.Factory, *memory.Outbox) {
	properties := memory.NewPropertyRepository()
	return memory.Factory{
		PropertiesRepo: properties,
		ApprovalsRepo:  memory.NewApprovalRepository(properties),
		LeasesRepo:     memory.NewLeaseRepository(),
		PolicyRepo:     memory.NewPolicyRepository(),
	}, memory.NewOutbox()
}

var testNow = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }

func TestGetPolicyDefaultsToManualReview(t *testing.T) {
	factory, _ := newFactory()
	h := &GetHandler{UoWFactory: factory}

	state, err := h.Handle(context.Background(), GetPolicyQuery{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.Enabled {
		t.Error("policy must default to disabled")
	}
}

func TestTogglePolicyRoundTrip(t *testing.T) {
	factory, box := newFactory()
	toggle := &ToggleHandler{UoWFactory: factory, Outbox: box, Clock: testNow}
	get := &GetHandler{UoWFactory: factory}

	state, err := toggle.Handle(context.Background(), TogglePolicyCommand{Enabled: true, AdminID: "admin-1"})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !state.Enabled || state.UpdatedBy != "admin-1" {
		t.Errorf("state = %+v", state)
	}

	got, err := get.Handle(context.Background(), GetPolicyQuery{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Enabled {
		t.Error("toggle not persisted")
	}

	events := box.Pending()
	if len(events) != 1 || events[0].Name != "policy.auto_approve.changed" {
		t.Errorf("outbox = %+v", events)
	}

	// Toggling back off works against the stored record.
	if _, err := toggle.Handle(context.Background(), TogglePolicyCommand{Enabled: false, AdminID: "admin-2"}); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	got, err = get.Handle(context.Background(), GetPolicyQuery{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enabled {
		t.Error("second toggle not persisted")
	}
	if got.UpdatedBy != "admin-2" {
		t.Errorf("updated_by = %q", got.UpdatedBy)
	}
}

func TestTogglePolicyRequiresAdmin(t *testing.T) {
	factory, box := newFactory()
	toggle := &ToggleHandler{UoWFactory: factory, Outbox: box, Clock: testNow}
	if _, err := toggle.Handle(context.Background(), TogglePolicyCommand{Enabled: true}); err == nil {
		t.Fatal("expected error for missing admin id")
	}
	if got := len(box.Pending()); got != 0 {
		t.Errorf("failed toggle recorded %d events", got)
	}
}
