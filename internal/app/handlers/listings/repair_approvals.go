package listings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentverse/internal/app/outbox"
	"rentverse/internal/app/uow"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/events"
)

const repairApprovalsKey = "listing.repair_approvals"

type RepairApprovalsCommand struct {
	AdminID string
}

func (c RepairApprovalsCommand) Key() string { return repairApprovalsKey }

type RepairedApproval struct {
	PropertyID string `json:"property_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type RepairApprovalsResult struct {
	Scanned  int                `json:"scanned"`
	Repaired []RepairedApproval `json:"repaired"`
}

// RepairApprovalsHandler scans for approval records that disagree with their
// property's status and resolves them by trusting the property. Every
// correction is logged. The operation is idempotent: a second run finds
// nothing left to fix.
type RepairApprovalsHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (h *RepairApprovalsHandler) Handle(ctx context.Context, cmd RepairApprovalsCommand) (*RepairApprovalsResult, error) {
	now := h.now()
	result := &RepairApprovalsResult{Repaired: []RepairedApproval{}}
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		mismatched, err := unit.Approvals().Mismatched(ctx)
		if err != nil {
			return err
		}
		result.Scanned = len(mismatched)
		var repaired []events.DomainEvent
		for _, approval := range mismatched {
			prop, err := unit.Properties().ByID(ctx, approval.PropertyID)
			if err != nil {
				if errors.Is(err, domainproperty.ErrNotFound) {
					continue
				}
				return err
			}
			from := approval.Status
			if !approval.ReconcileWithProperty(prop, now) {
				continue
			}
			if err := unit.Approvals().Save(ctx, approval); err != nil {
				return err
			}
			if h.Logger != nil {
				h.Logger.Warn("repaired diverged approval record",
					"property_id", approval.PropertyID,
					"from", from,
					"to", approval.Status,
					"admin_id", cmd.AdminID)
			}
			result.Repaired = append(result.Repaired, RepairedApproval{
				PropertyID: string(approval.PropertyID),
				From:       string(from),
				To:         string(approval.Status),
			})
			repaired = append(repaired, domainproperty.ApprovalRepaired{
				PropertyID: approval.PropertyID,
				From:       from,
				To:         approval.Status,
				At:         now,
			})
		}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), repaired)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *RepairApprovalsHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RepairApprovalsHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}
