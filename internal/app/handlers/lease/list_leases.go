package lease

import (
	"context"
	"time"

	"rentverse/internal/app/queries"
	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
)

const (
	myLeasesKey       = "lease.my_leases"
	propertyLeasesKey = "lease.property_leases"
)

type MyLeasesQuery struct {
	TenantID string
}

func (q MyLeasesQuery) Key() string { return myLeasesKey }

// PropertyLeasesQuery lists every lease on a property for its owner,
// including rejected and cancelled ones.
type PropertyLeasesQuery struct {
	PropertyID string
	OwnerID    string
}

func (q PropertyLeasesQuery) Key() string { return propertyLeasesKey }

type LeaseSummary struct {
	LeaseID    string    `json:"lease_id"`
	PropertyID string    `json:"property_id"`
	Status     string    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	RentAmount int64     `json:"rent_amount"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

type LeaseListResult struct {
	Items []LeaseSummary `json:"items"`
}

type MyLeasesHandler struct {
	UoWFactory uow.Factory
}

func (h *MyLeasesHandler) Handle(ctx context.Context, q MyLeasesQuery) (*LeaseListResult, error) {
	if q.TenantID == "" {
		return nil, domainlease.ErrTenantRequired
	}
	result := &LeaseListResult{Items: []LeaseSummary{}}
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		leases, err := unit.Leases().ListByTenant(ctx, q.TenantID)
		if err != nil {
			return err
		}
		result.Items = summarize(leases)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type PropertyLeasesHandler struct {
	UoWFactory uow.Factory
}

func (h *PropertyLeasesHandler) Handle(ctx context.Context, q PropertyLeasesQuery) (*LeaseListResult, error) {
	result := &LeaseListResult{Items: []LeaseSummary{}}
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		prop, err := unit.Properties().ByID(ctx, domainproperty.PropertyID(q.PropertyID))
		if err != nil {
			return err
		}
		if prop.OwnerID != q.OwnerID {
			return domainlease.ErrAccessDenied
		}
		leases, err := unit.Leases().ListByProperty(ctx, prop.ID)
		if err != nil {
			return err
		}
		result.Items = summarize(leases)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func summarize(leases []*domainlease.Lease) []LeaseSummary {
	out := make([]LeaseSummary, 0, len(leases))
	for _, l := range leases {
		out = append(out, LeaseSummary{
			LeaseID:    string(l.ID),
			PropertyID: string(l.PropertyID),
			Status:     string(l.Status),
			Start:      l.Range.Start,
			End:        l.Range.End,
			RentAmount: l.RentAmount.Amount,
			Currency:   l.RentAmount.Currency,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}

var _ queries.Handler[MyLeasesQuery, *LeaseListResult] = (*MyLeasesHandler)(nil)
var _ queries.Handler[PropertyLeasesQuery, *LeaseListResult] = (*PropertyLeasesHandler)(nil)
