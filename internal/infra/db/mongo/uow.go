package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
)

// Factory wires Mongo sessions into the generic unit-of-work interface; the
// property/approval double write and the lease+outbox write ride the same
// transaction.
type Factory struct {
	DB *mongo.Database

	PropertiesRepo domainproperty.Repository
	ApprovalsRepo  domainproperty.ApprovalRepository
	LeasesRepo     domainlease.Repository
	PolicyRepo     domainpolicy.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:    session,
		properties: f.PropertiesRepo,
		approvals:  f.ApprovalsRepo,
		leases:     f.LeasesRepo,
		policy:     f.PolicyRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the Mongo session visible to repositories running
// inside this unit of work.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
