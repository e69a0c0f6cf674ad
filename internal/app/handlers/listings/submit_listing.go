package listings

import (
	"context"
	"fmt"
	"time"

	"rentverse/internal/app/commands"
	"rentverse/internal/app/middleware"
	"rentverse/internal/app/outbox"
	"rentverse/internal/app/uow"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/money"
)

const submitListingKey = "listing.submit"

type SubmitListingCommand struct {
	CommandID       string
	OwnerID         string
	Title           string
	Description     string
	RentAmount      int64
	Currency        string
	IsAvailable     bool
	IdempotencyKeyV string
}

func (c SubmitListingCommand) Key() string { return submitListingKey }

func (c SubmitListingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitListingCommand) Validate() error {
	if c.CommandID == "" {
		return fmt.Errorf("%w: command id required", commands.ErrInvalidCommand)
	}
	if c.OwnerID == "" {
		return fmt.Errorf("%w: owner id required", commands.ErrInvalidCommand)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: title required", commands.ErrInvalidCommand)
	}
	return nil
}

func (c SubmitListingCommand) ResultPrototype() any { return &SubmitListingResult{} }

type SubmitListingResult struct {
	PropertyID     string `json:"property_id"`
	Status         string `json:"status"`
	ApprovalStatus string `json:"approval_status"`
}

// SubmitListingHandler creates a property together with its one-to-one
// approval record in a single unit of work. The initial status comes from the
// auto-approve policy gate and from nowhere else.
type SubmitListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *SubmitListingHandler) Handle(ctx context.Context, cmd SubmitListingCommand) (*SubmitListingResult, error) {
	rent, err := money.New(cmd.RentAmount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	now := h.now()
	var result *SubmitListingResult
	err = uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		decision := h.initialDecision(ctx, unit)

		prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
			ID:            domainproperty.PropertyID(cmd.CommandID),
			OwnerID:       cmd.OwnerID,
			Title:         cmd.Title,
			Description:   cmd.Description,
			RentAmount:    rent,
			IsAvailable:   cmd.IsAvailable,
			InitialStatus: decision.PropertyStatus,
			Now:           now,
		})
		if err != nil {
			return err
		}
		approval := domainproperty.NewApproval(prop.ID, decision.ApprovalStatus, decision.Notes, now)

		if err := unit.Properties().Save(ctx, prop); err != nil {
			return err
		}
		if err := unit.Approvals().Save(ctx, approval); err != nil {
			return err
		}
		pending := prop.PendingEvents()
		prop.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return err
		}
		result = &SubmitListingResult{
			PropertyID:     string(prop.ID),
			Status:         string(prop.Status),
			ApprovalStatus: string(approval.Status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *SubmitListingHandler) initialDecision(ctx context.Context, unit uow.UnitOfWork) domainpolicy.InitialDecision {
	pol, err := unit.Policy().Get(ctx)
	if err != nil {
		pol = domainpolicy.Default()
	}
	return pol.DecideInitialStatus()
}

func (h *SubmitListingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *SubmitListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[SubmitListingCommand, *SubmitListingResult] = (*SubmitListingHandler)(nil)
var _ middleware.IdempotentCommand = (*SubmitListingCommand)(nil)
