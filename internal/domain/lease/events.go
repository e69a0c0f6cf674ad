package lease

import (
	"time"

	"rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/money"
)

type LeaseRequested struct {
	LeaseID    LeaseID
	PropertyID property.PropertyID
	TenantID   string
	Range      daterange.DateRange
	Rent       money.Money
	At         time.Time
}

func (e LeaseRequested) EventName() string     { return "lease.requested" }
func (e LeaseRequested) AggregateID() string   { return string(e.LeaseID) }
func (e LeaseRequested) OccurredAt() time.Time { return e.At }

type LeaseApproved struct {
	LeaseID    LeaseID
	PropertyID property.PropertyID
	Range      daterange.DateRange
	At         time.Time
}

func (e LeaseApproved) EventName() string     { return "lease.approved" }
func (e LeaseApproved) AggregateID() string   { return string(e.LeaseID) }
func (e LeaseApproved) OccurredAt() time.Time { return e.At }

type LeaseRejected struct {
	LeaseID    LeaseID
	PropertyID property.PropertyID
	Reason     string
	At         time.Time
}

func (e LeaseRejected) EventName() string     { return "lease.rejected" }
func (e LeaseRejected) AggregateID() string   { return string(e.LeaseID) }
func (e LeaseRejected) OccurredAt() time.Time { return e.At }

type LeaseActivated struct {
	LeaseID    LeaseID
	PropertyID property.PropertyID
	At         time.Time
}

func (e LeaseActivated) EventName() string     { return "lease.activated" }
func (e LeaseActivated) AggregateID() string   { return string(e.LeaseID) }
func (e LeaseActivated) OccurredAt() time.Time { return e.At }

type LeaseCompleted struct {
	LeaseID    LeaseID
	PropertyID property.PropertyID
	At         time.Time
}

func (e LeaseCompleted) EventName() string     { return "lease.completed" }
func (e LeaseCompleted) AggregateID() string   { return string(e.LeaseID) }
func (e LeaseCompleted) OccurredAt() time.Time { return e.At }

type LeaseCancelled struct {
	LeaseID    LeaseID
	PropertyID property.PropertyID
	Reason     string
	At         time.Time
}

func (e LeaseCancelled) EventName() string     { return "lease.cancelled" }
func (e LeaseCancelled) AggregateID() string   { return string(e.LeaseID) }
func (e LeaseCancelled) OccurredAt() time.Time { return e.At }
