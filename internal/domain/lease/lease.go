package lease

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/events"
	"rentverse/internal/domain/shared/money"
)

var (
	ErrNotFound            = errors.New("lease: not found")
	ErrInvalidState        = errors.New("lease: invalid state transition")
	ErrStartDateInPast     = errors.New("lease: start date is in the past")
	ErrSelfLease           = errors.New("lease: owners cannot lease their own property")
	ErrPropertyUnavailable = errors.New("lease: property is not accepting leases")
	ErrDateConflict        = errors.New("lease: requested dates conflict with an existing lease")
	ErrAccessDenied        = errors.New("lease: caller is not the property owner")
	ErrReasonRequired      = errors.New("lease: rejection reason is required")
	ErrTenantRequired      = errors.New("lease: tenant id is required")
)

type LeaseID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// transitions is the closed transition table. Any move not listed here is
// rejected with ErrInvalidState regardless of caller.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusActive, StatusCancelled},
	StatusActive:   {StatusCompleted},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses that hold a calendar slot. Only leases in
// one of these states participate in availability checks.
var ActiveStatuses = []Status{StatusApproved, StatusActive}

func (s Status) HoldsCalendarSlot() bool {
	return s == StatusApproved || s == StatusActive
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Lease is a tenant's claim on a property for a half-open date range.
// Leases are never deleted; rejection and cancellation are status
// transitions so the history stays auditable.
type Lease struct {
	ID         LeaseID
	PropertyID property.PropertyID
	TenantID   string
	// OwnerID is denormalized from the property at creation time so owner
	// checks do not need a property fetch.
	OwnerID    string
	Range      daterange.DateRange
	RentAmount money.Money
	Notes      string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id LeaseID) (*Lease, error)
	Save(ctx context.Context, lease *Lease) error
	// ActiveInRange returns every lease on the property holding a calendar
	// slot whose range overlaps the candidate, optionally excluding one
	// lease id (used when re-checking an existing lease).
	ActiveInRange(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange, exclude LeaseID) ([]*Lease, error)
	ListByProperty(ctx context.Context, propertyID property.PropertyID) ([]*Lease, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Lease, error)
}

type CreateParams struct {
	ID         LeaseID
	PropertyID property.PropertyID
	TenantID   string
	OwnerID    string
	Range      daterange.DateRange
	RentAmount money.Money
	Notes      string
	Now        time.Time
}

// NewLease builds a lease request in PENDING state. The availability and
// property preconditions are the application layer's responsibility; this
// constructor validates only the lease's own fields.
func NewLease(params CreateParams) (*Lease, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("lease: id is required")
	}
	if strings.TrimSpace(params.TenantID) == "" {
		return nil, ErrTenantRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.TenantID == params.OwnerID {
		return nil, ErrSelfLease
	}
	now := params.Now.UTC()
	l := &Lease{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		TenantID:   params.TenantID,
		OwnerID:    params.OwnerID,
		Range:      params.Range,
		RentAmount: params.RentAmount,
		Notes:      params.Notes,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.Record(LeaseRequested{LeaseID: l.ID, PropertyID: l.PropertyID, TenantID: l.TenantID, Range: l.Range, Rent: l.RentAmount, At: now})
	return l, nil
}

func (l *Lease) Approve(now time.Time) error {
	if !l.Status.CanTransitionTo(StatusApproved) {
		return ErrInvalidState
	}
	l.Status = StatusApproved
	l.UpdatedAt = now.UTC()
	l.Record(LeaseApproved{LeaseID: l.ID, PropertyID: l.PropertyID, Range: l.Range, At: l.UpdatedAt})
	return nil
}

func (l *Lease) Reject(reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	if !l.Status.CanTransitionTo(StatusRejected) {
		return ErrInvalidState
	}
	l.Status = StatusRejected
	l.Notes = reason
	l.UpdatedAt = now.UTC()
	l.Record(LeaseRejected{LeaseID: l.ID, PropertyID: l.PropertyID, Reason: reason, At: l.UpdatedAt})
	return nil
}

func (l *Lease) Activate(now time.Time) error {
	if !l.Status.CanTransitionTo(StatusActive) {
		return ErrInvalidState
	}
	l.Status = StatusActive
	l.UpdatedAt = now.UTC()
	l.Record(LeaseActivated{LeaseID: l.ID, PropertyID: l.PropertyID, At: l.UpdatedAt})
	return nil
}

func (l *Lease) Complete(now time.Time) error {
	if !l.Status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidState
	}
	l.Status = StatusCompleted
	l.UpdatedAt = now.UTC()
	l.Record(LeaseCompleted{LeaseID: l.ID, PropertyID: l.PropertyID, At: l.UpdatedAt})
	return nil
}

func (l *Lease) Cancel(reason string, now time.Time) error {
	if !l.Status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidState
	}
	l.Status = StatusCancelled
	if strings.TrimSpace(reason) != "" {
		l.Notes = reason
	}
	l.UpdatedAt = now.UTC()
	l.Record(LeaseCancelled{LeaseID: l.ID, PropertyID: l.PropertyID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// ValidateStartDate rejects ranges starting before today. Comparison is at
// calendar-date granularity: a lease starting later today is allowed.
func ValidateStartDate(r daterange.DateRange, now time.Time) error {
	if r.Start.Before(daterange.Day(now)) {
		return ErrStartDateInPast
	}
	return nil
}
