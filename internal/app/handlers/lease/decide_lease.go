package lease

import (
	"context"
	"time"

	"rentverse/internal/app/outbox"
	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
)

const (
	approveLeaseKey = "lease.approve"
	rejectLeaseKey  = "lease.reject"
)

type ApproveLeaseCommand struct {
	LeaseID string
	OwnerID string
}

func (c ApproveLeaseCommand) Key() string { return approveLeaseKey }

type RejectLeaseCommand struct {
	LeaseID string
	OwnerID string
	Reason  string
}

func (c RejectLeaseCommand) Key() string { return rejectLeaseKey }

type DecideLeaseResult struct {
	LeaseID string `json:"lease_id"`
	Status  string `json:"status"`
}

// DecideLeaseHandler covers the manual-review path of the lease state
// machine. It stays exercised even while the auto-approve policy is on,
// because the policy is a runtime toggle.
type DecideLeaseHandler struct {
	UoWFactory uow.Factory
	Lock       domainlease.CalendarLock
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

// HandleApprove re-runs the availability check (excluding the lease's own id)
// before approving: the calendar may have changed since the request was made.
func (h *DecideLeaseHandler) HandleApprove(ctx context.Context, cmd ApproveLeaseCommand) (*DecideLeaseResult, error) {
	var result *DecideLeaseResult
	now := h.now()
	err := h.withLockedLease(ctx, domainlease.LeaseID(cmd.LeaseID), cmd.OwnerID, func(ctx context.Context, unit uow.UnitOfWork, l *domainlease.Lease) error {
		if l.Status != domainlease.StatusPending {
			return domainlease.ErrInvalidState
		}
		available, err := domainlease.CheckAvailability(ctx, unit.Leases(), l.PropertyID, l.Range, l.ID)
		if err != nil {
			return err
		}
		if !available {
			return domainlease.ErrDateConflict
		}
		if err := l.Approve(now); err != nil {
			return err
		}
		result = &DecideLeaseResult{LeaseID: string(l.ID), Status: string(l.Status)}
		return h.persist(ctx, unit, l)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *DecideLeaseHandler) HandleReject(ctx context.Context, cmd RejectLeaseCommand) (*DecideLeaseResult, error) {
	var result *DecideLeaseResult
	now := h.now()
	err := h.withLockedLease(ctx, domainlease.LeaseID(cmd.LeaseID), cmd.OwnerID, func(ctx context.Context, unit uow.UnitOfWork, l *domainlease.Lease) error {
		if l.Status != domainlease.StatusPending {
			return domainlease.ErrInvalidState
		}
		if err := l.Reject(cmd.Reason, now); err != nil {
			return err
		}
		result = &DecideLeaseResult{LeaseID: string(l.ID), Status: string(l.Status)}
		return h.persist(ctx, unit, l)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withLockedLease loads the lease, enforces ownership and runs fn with the
// property calendar lock held through commit.
func (h *DecideLeaseHandler) withLockedLease(ctx context.Context, id domainlease.LeaseID, ownerID string, fn func(ctx context.Context, unit uow.UnitOfWork, l *domainlease.Lease) error) error {
	// The property id is needed before the lock can be taken, so the lease
	// is read twice: once unlocked for routing, once under the lock.
	var propertyID string
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		l, err := unit.Leases().ByID(ctx, id)
		if err != nil {
			return err
		}
		propertyID = string(l.PropertyID)
		return nil
	})
	if err != nil {
		return err
	}

	release, err := h.Lock.Acquire(ctx, domainproperty.PropertyID(propertyID))
	if err != nil {
		return err
	}
	defer release()

	return uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		l, err := unit.Leases().ByID(ctx, id)
		if err != nil {
			return err
		}
		if l.OwnerID != ownerID {
			return domainlease.ErrAccessDenied
		}
		return fn(ctx, unit, l)
	})
}

func (h *DecideLeaseHandler) persist(ctx context.Context, unit uow.UnitOfWork, l *domainlease.Lease) error {
	if err := unit.Leases().Save(ctx, l); err != nil {
		return err
	}
	pending := l.PendingEvents()
	l.ClearEvents()
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending)
}

func (h *DecideLeaseHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *DecideLeaseHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}
