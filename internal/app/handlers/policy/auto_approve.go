package policy

import (
	"context"
	"errors"
	"time"

	"rentverse/internal/app/outbox"
	"rentverse/internal/app/queries"
	"rentverse/internal/app/uow"
	domainpolicy "rentverse/internal/domain/policy"
	"rentverse/internal/domain/shared/events"
)

const (
	togglePolicyKey = "policy.auto_approve.toggle"
	getPolicyKey    = "policy.auto_approve.get"
)

type TogglePolicyCommand struct {
	Enabled bool
	AdminID string
}

func (c TogglePolicyCommand) Key() string { return togglePolicyKey }

type GetPolicyQuery struct{}

func (q GetPolicyQuery) Key() string { return getPolicyKey }

type PolicyState struct {
	Enabled   bool      `json:"enabled"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ToggleHandler persists the auto-approve flag together with the acting
// administrator and time, so every auto-approved listing can be traced back
// to the policy decision that allowed it.
type ToggleHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *ToggleHandler) Handle(ctx context.Context, cmd TogglePolicyCommand) (*PolicyState, error) {
	now := h.now()
	var state *PolicyState
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		pol, err := unit.Policy().Get(ctx)
		if err != nil {
			if !errors.Is(err, domainpolicy.ErrNotFound) {
				return err
			}
			pol = domainpolicy.Default()
		}
		if err := pol.Toggle(cmd.Enabled, cmd.AdminID, now); err != nil {
			return err
		}
		if err := unit.Policy().Save(ctx, pol); err != nil {
			return err
		}
		state = &PolicyState{Enabled: pol.Enabled, UpdatedBy: pol.UpdatedBy, UpdatedAt: pol.UpdatedAt}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{
			domainpolicy.PolicyChanged{Enabled: pol.Enabled, AdminID: cmd.AdminID, At: now},
		})
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (h *ToggleHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ToggleHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

// GetHandler reads the current policy; before any administrator has touched
// the flag it reports the default (manual review).
type GetHandler struct {
	UoWFactory uow.Factory
}

func (h *GetHandler) Handle(ctx context.Context, q GetPolicyQuery) (*PolicyState, error) {
	var state *PolicyState
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		pol, err := unit.Policy().Get(ctx)
		if err != nil {
			if !errors.Is(err, domainpolicy.ErrNotFound) {
				return err
			}
			pol = domainpolicy.Default()
		}
		state = &PolicyState{Enabled: pol.Enabled, UpdatedBy: pol.UpdatedBy, UpdatedAt: pol.UpdatedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

var _ queries.Handler[GetPolicyQuery, *PolicyState] = (*GetHandler)(nil)
