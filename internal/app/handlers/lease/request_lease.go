package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rentverse/internal/app/commands"
	"rentverse/internal/app/middleware"
	"rentverse/internal/app/outbox"
	"rentverse/internal/app/policies"
	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/money"
)

const requestLeaseKey = "lease.request"

type RequestLeaseCommand struct {
	CommandID       string
	PropertyID      string
	TenantID        string
	Start           time.Time
	End             time.Time
	RentAmount      int64
	Currency        string
	Notes           string
	IdempotencyKeyV string
}

func (c RequestLeaseCommand) Key() string { return requestLeaseKey }

func (c RequestLeaseCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestLeaseCommand) Validate() error {
	if c.CommandID == "" {
		return fmt.Errorf("%w: command id required", commands.ErrInvalidCommand)
	}
	if c.PropertyID == "" {
		return fmt.Errorf("%w: property id required", commands.ErrInvalidCommand)
	}
	if c.TenantID == "" {
		return fmt.Errorf("%w: tenant id required", commands.ErrInvalidCommand)
	}
	return nil
}

func (c RequestLeaseCommand) ResultPrototype() any { return &RequestLeaseResult{} }

type RequestLeaseResult struct {
	LeaseID string `json:"lease_id"`
	Status  string `json:"status"`
	// Agreement generation is fire-and-forget: a failure is reported here,
	// never as a lease failure.
	AgreementDocumentID string `json:"agreement_document_id,omitempty"`
	AgreementError      string `json:"agreement_error,omitempty"`
}

type RequestLeaseHandler struct {
	UoWFactory uow.Factory
	Lock       domainlease.CalendarLock
	Agreements policies.AgreementPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Handle runs the lease-request precondition chain and commits the new lease
// together with its audit events. The property calendar lock is held from
// before the availability check until after commit, so two overlapping
// requests on the same property serialize and exactly one wins.
func (h *RequestLeaseHandler) Handle(ctx context.Context, cmd RequestLeaseCommand) (*RequestLeaseResult, error) {
	dr, err := daterange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if err := domainlease.ValidateStartDate(dr, now); err != nil {
		return nil, err
	}
	rent, err := money.New(cmd.RentAmount, cmd.Currency)
	if err != nil {
		return nil, err
	}

	release, err := h.Lock.Acquire(ctx, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	defer release()

	var created *domainlease.Lease
	err = uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(cmd.PropertyID))
		if err != nil {
			return err
		}
		if cmd.TenantID == prop.OwnerID {
			return domainlease.ErrSelfLease
		}
		if !prop.IsAvailable {
			return domainlease.ErrPropertyUnavailable
		}
		available, err := domainlease.CheckAvailability(ctx, unit.Leases(), prop.ID, dr, "")
		if err != nil {
			return err
		}
		if !available {
			return domainlease.ErrDateConflict
		}

		l, err := domainlease.NewLease(domainlease.CreateParams{
			ID:         domainlease.LeaseID(cmd.CommandID),
			PropertyID: prop.ID,
			TenantID:   cmd.TenantID,
			OwnerID:    prop.OwnerID,
			Range:      dr,
			RentAmount: rent,
			Notes:      cmd.Notes,
			Now:        now,
		})
		if err != nil {
			return err
		}
		if h.autoApproveEnabled(ctx, unit) {
			if err := l.Approve(now); err != nil {
				return err
			}
		}
		if err := unit.Leases().Save(ctx, l); err != nil {
			return err
		}
		pending := l.PendingEvents()
		l.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &RequestLeaseResult{LeaseID: string(created.ID), Status: string(created.Status)}
	h.triggerAgreement(ctx, created, result)
	return result, nil
}

// autoApproveEnabled consults the policy gate; a missing policy record means
// the default (manual review) applies.
func (h *RequestLeaseHandler) autoApproveEnabled(ctx context.Context, unit uow.UnitOfWork) bool {
	pol, err := unit.Policy().Get(ctx)
	if err != nil {
		return domainpolicy.Default().Enabled
	}
	return pol.Enabled
}

func (h *RequestLeaseHandler) triggerAgreement(ctx context.Context, l *domainlease.Lease, result *RequestLeaseResult) {
	if h.Agreements == nil {
		return
	}
	docID, err := h.Agreements.GenerateAgreement(ctx, l)
	if err != nil {
		result.AgreementError = err.Error()
		if h.Logger != nil {
			h.Logger.Warn("agreement generation failed", "lease_id", l.ID, "error", err)
		}
		return
	}
	result.AgreementDocumentID = docID
}

func (h *RequestLeaseHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RequestLeaseHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestLeaseCommand, *RequestLeaseResult] = (*RequestLeaseHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestLeaseCommand)(nil)
