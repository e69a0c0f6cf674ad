package uow

import (
	"context"

	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
)

// UnitOfWork coordinates repositories inside one transaction boundary. A
// lease write and its audit events, or a property/approval double write,
// commit together or not at all.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Approvals() domainproperty.ApprovalRepository
	Leases() domainlease.Repository
	Policy() domainpolicy.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
