package memory

import (
	"context"
	"errors"

	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertiesRepo domainproperty.Repository
	ApprovalsRepo  domainproperty.ApprovalRepository
	LeasesRepo     domainlease.Repository
	PolicyRepo     domainpolicy.Repository
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; exclusion in memory
// comes from the keyed calendar lock instead.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertiesRepo == nil || f.ApprovalsRepo == nil || f.LeasesRepo == nil || f.PolicyRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		properties: f.PropertiesRepo,
		approvals:  f.ApprovalsRepo,
		leases:     f.LeasesRepo,
		policy:     f.PolicyRepo,
	}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	properties domainproperty.Repository
	approvals  domainproperty.ApprovalRepository
	leases     domainlease.Repository
	policy     domainpolicy.Repository
}

func (u *Unit) Properties() domainproperty.Repository {
	return u.properties
}

func (u *Unit) Approvals() domainproperty.ApprovalRepository {
	return u.approvals
}

func (u *Unit) Leases() domainlease.Repository {
	return u.leases
}

func (u *Unit) Policy() domainpolicy.Repository {
	return u.policy
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
