package property

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrApprovalNotFound     = errors.New("property: approval record not found")
	ErrReviewNotesRequired  = errors.New("property: rejection notes are required")
	ErrApprovalAlreadyFinal = errors.New("property: approval already decided")
	// ErrStatusMismatch signals that a property's status and its approval
	// record disagree. This is an error condition repaired by
	// ReconcileWithProperty, never a normal state.
	ErrStatusMismatch = errors.New("property: approval status diverged from property status")
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Approval is the one-to-one audit record of a listing review. It is created
// in the same unit of work as the property and decided at most once.
type Approval struct {
	PropertyID PropertyID
	Status     ApprovalStatus
	ReviewerID string
	Notes      string
	ReviewedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
}

type ApprovalRepository interface {
	ByPropertyID(ctx context.Context, id PropertyID) (*Approval, error)
	Save(ctx context.Context, a *Approval) error
	// Mismatched returns approvals whose status disagrees with the property
	// status under the canonical mapping (APPROVED<->APPROVED,
	// PENDING_REVIEW<->PENDING, REJECTED<->REJECTED).
	Mismatched(ctx context.Context) ([]*Approval, error)
}

func NewApproval(propertyID PropertyID, status ApprovalStatus, notes string, now time.Time) *Approval {
	t := now.UTC()
	a := &Approval{
		PropertyID: propertyID,
		Status:     status,
		Notes:      notes,
		CreatedAt:  t,
		UpdatedAt:  t,
	}
	if status != ApprovalPending {
		a.ReviewedAt = t
	}
	return a
}

func (a *Approval) Approve(reviewerID, notes string, now time.Time) error {
	if a.Status != ApprovalPending {
		return ErrApprovalAlreadyFinal
	}
	a.Status = ApprovalApproved
	a.ReviewerID = reviewerID
	a.Notes = notes
	a.ReviewedAt = now.UTC()
	a.UpdatedAt = a.ReviewedAt
	return nil
}

func (a *Approval) Reject(reviewerID, notes string, now time.Time) error {
	if strings.TrimSpace(notes) == "" {
		return ErrReviewNotesRequired
	}
	if a.Status != ApprovalPending {
		return ErrApprovalAlreadyFinal
	}
	a.Status = ApprovalRejected
	a.ReviewerID = reviewerID
	a.Notes = notes
	a.ReviewedAt = now.UTC()
	a.UpdatedAt = a.ReviewedAt
	return nil
}

// ExpectedApprovalStatus maps a property status to the approval status it
// must agree with. The boolean is false for statuses with no approval
// counterpart (DRAFT, ARCHIVED).
func ExpectedApprovalStatus(s Status) (ApprovalStatus, bool) {
	switch s {
	case StatusPendingReview:
		return ApprovalPending, true
	case StatusApproved:
		return ApprovalApproved, true
	case StatusRejected:
		return ApprovalRejected, true
	default:
		return "", false
	}
}

// Consistent reports whether the approval agrees with the property's status.
func (a *Approval) Consistent(p *Property) bool {
	expected, ok := ExpectedApprovalStatus(p.Status)
	if !ok {
		return true
	}
	return a.Status == expected
}

// ReconcileWithProperty forces the approval to agree with the property,
// trusting the property's own status as authoritative. Returns true when a
// correction was applied; repeated calls are no-ops.
func (a *Approval) ReconcileWithProperty(p *Property, now time.Time) bool {
	expected, ok := ExpectedApprovalStatus(p.Status)
	if !ok || a.Status == expected {
		return false
	}
	a.Status = expected
	a.UpdatedAt = now.UTC()
	if expected != ApprovalPending && a.ReviewedAt.IsZero() {
		a.ReviewedAt = a.UpdatedAt
	}
	return true
}
