package listings

import (
	"context"
	"strings"
	"time"

	"rentverse/internal/app/outbox"
	"rentverse/internal/app/uow"
	domainproperty "rentverse/internal/domain/property"
)

const (
	approveListingKey = "listing.approve"
	rejectListingKey  = "listing.reject"
)

type ApproveListingCommand struct {
	PropertyID string
	ReviewerID string
	Notes      string
}

func (c ApproveListingCommand) Key() string { return approveListingKey }

type RejectListingCommand struct {
	PropertyID string
	ReviewerID string
	Notes      string
}

func (c RejectListingCommand) Key() string { return rejectListingKey }

type ReviewListingResult struct {
	PropertyID     string    `json:"property_id"`
	Status         string    `json:"status"`
	ApprovalStatus string    `json:"approval_status"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}

// ReviewListingHandler applies a review decision to the property and its
// approval record as one atomic unit: both writes commit together or neither
// does.
type ReviewListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ReviewListingHandler) HandleApprove(ctx context.Context, cmd ApproveListingCommand) (*ReviewListingResult, error) {
	now := h.now()
	return h.review(ctx, domainproperty.PropertyID(cmd.PropertyID), func(prop *domainproperty.Property, approval *domainproperty.Approval) error {
		if err := prop.ApproveListing(cmd.ReviewerID, now); err != nil {
			return err
		}
		return approval.Approve(cmd.ReviewerID, cmd.Notes, now)
	})
}

func (h *ReviewListingHandler) HandleReject(ctx context.Context, cmd RejectListingCommand) (*ReviewListingResult, error) {
	if strings.TrimSpace(cmd.Notes) == "" {
		return nil, domainproperty.ErrReviewNotesRequired
	}
	now := h.now()
	return h.review(ctx, domainproperty.PropertyID(cmd.PropertyID), func(prop *domainproperty.Property, approval *domainproperty.Approval) error {
		if err := prop.RejectListing(cmd.ReviewerID, cmd.Notes, now); err != nil {
			return err
		}
		return approval.Reject(cmd.ReviewerID, cmd.Notes, now)
	})
}

func (h *ReviewListingHandler) review(ctx context.Context, id domainproperty.PropertyID, decide func(*domainproperty.Property, *domainproperty.Approval) error) (*ReviewListingResult, error) {
	var result *ReviewListingResult
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		prop, err := unit.Properties().ByID(ctx, id)
		if err != nil {
			return err
		}
		approval, err := unit.Approvals().ByPropertyID(ctx, id)
		if err != nil {
			return err
		}
		if err := decide(prop, approval); err != nil {
			return err
		}
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
		result = &ReviewListingResult{
			PropertyID:     string(prop.ID),
			Status:         string(prop.Status),
			ApprovalStatus: string(approval.Status),
			ReviewedAt:     approval.ReviewedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *ReviewListingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ReviewListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}
