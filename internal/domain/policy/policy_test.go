package policy

import (
	"errors"
	"testing"
	"time"

	"rentverse/internal/domain/property"
)

func TestDefaultIsManualReview(t *testing.T) {
	p := Default()
	if p.Enabled {
		t.Fatal("default policy must require manual review")
	}
	d := p.DecideInitialStatus()
	if d.PropertyStatus != property.StatusPendingReview {
		t.Errorf("property status = %s, want PENDING_REVIEW", d.PropertyStatus)
	}
	if d.ApprovalStatus != property.ApprovalPending {
		t.Errorf("approval status = %s, want PENDING", d.ApprovalStatus)
	}
	if d.Notes != "" {
		t.Errorf("notes = %q, want empty", d.Notes)
	}
}

func TestDecideInitialStatusEnabled(t *testing.T) {
	p := Default()
	if err := p.Toggle(true, "admin-1", time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	d := p.DecideInitialStatus()
	if d.PropertyStatus != property.StatusApproved {
		t.Errorf("property status = %s, want APPROVED", d.PropertyStatus)
	}
	if d.ApprovalStatus != property.ApprovalApproved {
		t.Errorf("approval status = %s, want APPROVED", d.ApprovalStatus)
	}
	if d.Notes != SystemApprovalNote {
		t.Errorf("notes = %q, want system note", d.Notes)
	}
}

func TestDecideInitialStatusDeterministic(t *testing.T) {
	p := Default()
	first := p.DecideInitialStatus()
	for i := 0; i < 10; i++ {
		if got := p.DecideInitialStatus(); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestToggleRecordsActor(t *testing.T) {
	p := Default()
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := p.Toggle(true, "admin-7", at); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if p.UpdatedBy != "admin-7" {
		t.Errorf("updated_by = %q", p.UpdatedBy)
	}
	if !p.UpdatedAt.Equal(at) {
		t.Errorf("updated_at = %v", p.UpdatedAt)
	}
}

func TestToggleRequiresAdmin(t *testing.T) {
	p := Default()
	if err := p.Toggle(true, "", time.Now()); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("err = %v, want ErrAdminRequired", err)
	}
}
