package listings

import (
	"context"
	"time"

	"rentverse/internal/app/outbox"
	"rentverse/internal/app/uow"
	domainproperty "rentverse/internal/domain/property"
)

const (
	setAvailabilityKey = "listing.set_availability"
	archiveListingKey  = "listing.archive"
)

type SetAvailabilityCommand struct {
	PropertyID string
	OwnerID    string
	Available  bool
}

func (c SetAvailabilityCommand) Key() string { return setAvailabilityKey }

type ArchiveListingCommand struct {
	PropertyID string
	OwnerID    string
}

func (c ArchiveListingCommand) Key() string { return archiveListingKey }

type ManageListingResult struct {
	PropertyID  string `json:"property_id"`
	Status      string `json:"status"`
	IsAvailable bool   `json:"is_available"`
}

// ManageListingHandler covers the owner-side listing controls that live
// outside the review state machine: the manual availability switch and
// withdrawing a listing from circulation.
type ManageListingHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ManageListingHandler) HandleSetAvailability(ctx context.Context, cmd SetAvailabilityCommand) (*ManageListingResult, error) {
	now := h.now()
	return h.manage(ctx, domainproperty.PropertyID(cmd.PropertyID), cmd.OwnerID, func(prop *domainproperty.Property) error {
		prop.SetAvailability(cmd.Available, now)
		return nil
	})
}

func (h *ManageListingHandler) HandleArchive(ctx context.Context, cmd ArchiveListingCommand) (*ManageListingResult, error) {
	now := h.now()
	return h.manage(ctx, domainproperty.PropertyID(cmd.PropertyID), cmd.OwnerID, func(prop *domainproperty.Property) error {
		return prop.Archive(now)
	})
}

func (h *ManageListingHandler) manage(ctx context.Context, id domainproperty.PropertyID, ownerID string, mutate func(*domainproperty.Property) error) (*ManageListingResult, error) {
	var result *ManageListingResult
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		prop, err := unit.Properties().ByID(ctx, id)
		if err != nil {
			return err
		}
		if prop.OwnerID != ownerID {
			return domainproperty.ErrAccessDenied
		}
		if err := mutate(prop); err != nil {
			return err
		}
		if err := unit.Properties().Save(ctx, prop); err != nil {
			return err
		}
		pending := prop.PendingEvents()
		prop.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return err
		}
		result = &ManageListingResult{
			PropertyID:  string(prop.ID),
			Status:      string(prop.Status),
			IsAvailable: prop.IsAvailable,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *ManageListingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ManageListingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}
