package policy

import (
	"context"
	"errors"
	"time"

	"rentverse/internal/domain/property"
)

var (
	ErrNotFound      = errors.New("policy: auto-approve policy not found")
	ErrAdminRequired = errors.New("policy: actor id is required")
)

// SystemApprovalNote is recorded on approvals granted by the policy gate
// rather than a human reviewer.
const SystemApprovalNote = "Auto-approved by listing policy"

// AutoApprovePolicy is the process-wide switch deciding whether new listings
// skip manual review. It is versioned state rather than a bare flag so "why
// was this listing auto-approved" stays answerable.
type AutoApprovePolicy struct {
	Enabled   bool
	UpdatedBy string
	UpdatedAt time.Time
	Version   int64
}

type Repository interface {
	Get(ctx context.Context) (*AutoApprovePolicy, error)
	Save(ctx context.Context, p *AutoApprovePolicy) error
}

// Default is the policy in force before any administrator touched it:
// manual review.
func Default() *AutoApprovePolicy {
	return &AutoApprovePolicy{Enabled: false}
}

// Toggle records a new value together with the acting administrator.
func (p *AutoApprovePolicy) Toggle(enabled bool, adminID string, now time.Time) error {
	if adminID == "" {
		return ErrAdminRequired
	}
	p.Enabled = enabled
	p.UpdatedBy = adminID
	p.UpdatedAt = now.UTC()
	return nil
}

// InitialDecision is what the gate hands to listing creation.
type InitialDecision struct {
	PropertyStatus property.Status
	ApprovalStatus property.ApprovalStatus
	Notes          string
}

// DecideInitialStatus is the single place a new listing's initial status is
// decided. Deterministic in the flag; caller identity plays no part.
func (p *AutoApprovePolicy) DecideInitialStatus() InitialDecision {
	if p.Enabled {
		return InitialDecision{
			PropertyStatus: property.StatusApproved,
			ApprovalStatus: property.ApprovalApproved,
			Notes:          SystemApprovalNote,
		}
	}
	return InitialDecision{
		PropertyStatus: property.StatusPendingReview,
		ApprovalStatus: property.ApprovalPending,
	}
}

type PolicyChanged struct {
	Enabled bool
	AdminID string
	At      time.Time
}

func (e PolicyChanged) EventName() string     { return "policy.auto_approve.changed" }
func (e PolicyChanged) AggregateID() string   { return "auto-approve-policy" }
func (e PolicyChanged) OccurredAt() time.Time { return e.At }
