package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentverse/internal/domain/shared/events"
	"rentverse/internal/domain/shared/money"
)

var (
	ErrNotFound      = errors.New("property: not found")
	ErrInvalidState  = errors.New("property: invalid state transition")
	ErrTitleRequired = errors.New("property: title is required")
	ErrOwnerRequired = errors.New("property: owner is required")
	ErrAccessDenied  = errors.New("property: caller is not the listing owner")
)

type PropertyID string

type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusArchived      Status = "ARCHIVED"
)

// transitions is the closed transition table for listing visibility. Review
// decisions only apply to PENDING_REVIEW listings; DRAFT and ARCHIVED are
// administrative states reached through explicit owner/admin action.
var transitions = map[Status][]Status{
	StatusDraft:         {StatusPendingReview, StatusArchived},
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusApproved:      {StatusArchived},
	StatusRejected:      {StatusPendingReview, StatusArchived},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Property is a rentable unit. Status is mutated only by the review state
// machine; IsAvailable is the owner's manual on/off switch and is independent
// of the review lifecycle.
type Property struct {
	ID          PropertyID
	OwnerID     string
	Title       string
	Description string
	RentAmount  money.Money
	IsAvailable bool
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	// PendingReview lists properties awaiting a review decision, paginated,
	// ordered by creation time ascending so the oldest submissions surface
	// first.
	PendingReview(ctx context.Context, offset, limit int) ([]*Property, int64, error)
}

type CreateParams struct {
	ID            PropertyID
	OwnerID       string
	Title         string
	Description   string
	RentAmount    money.Money
	IsAvailable   bool
	InitialStatus Status
	Now           time.Time
}

// NewProperty builds a listing with the initial status decided by the
// auto-approve policy gate. Callers must not choose the status themselves.
func NewProperty(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("property: id is required")
	}
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	now := params.Now.UTC()
	p := &Property{
		ID:          params.ID,
		OwnerID:     params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		RentAmount:  params.RentAmount,
		IsAvailable: params.IsAvailable,
		Status:      params.InitialStatus,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(ListingSubmitted{PropertyID: p.ID, OwnerID: p.OwnerID, Status: p.Status, At: now})
	return p, nil
}

// ApproveListing publishes a pending listing.
func (p *Property) ApproveListing(reviewerID string, now time.Time) error {
	if !p.Status.CanTransitionTo(StatusApproved) {
		return ErrInvalidState
	}
	p.Status = StatusApproved
	p.UpdatedAt = now.UTC()
	p.Record(ListingApproved{PropertyID: p.ID, ReviewerID: reviewerID, At: p.UpdatedAt})
	return nil
}

// RejectListing declines a pending listing.
func (p *Property) RejectListing(reviewerID, notes string, now time.Time) error {
	if !p.Status.CanTransitionTo(StatusRejected) {
		return ErrInvalidState
	}
	p.Status = StatusRejected
	p.UpdatedAt = now.UTC()
	p.Record(ListingRejected{PropertyID: p.ID, ReviewerID: reviewerID, Notes: notes, At: p.UpdatedAt})
	return nil
}

// SetAvailability flips the owner's manual switch.
func (p *Property) SetAvailability(available bool, now time.Time) {
	if p.IsAvailable == available {
		return
	}
	p.IsAvailable = available
	p.UpdatedAt = now.UTC()
}

// Archive withdraws the listing from circulation.
func (p *Property) Archive(now time.Time) error {
	if !p.Status.CanTransitionTo(StatusArchived) {
		return ErrInvalidState
	}
	p.Status = StatusArchived
	p.UpdatedAt = now.UTC()
	p.Record(ListingArchived{PropertyID: p.ID, At: p.UpdatedAt})
	return nil
}
