package property

import "time"

type ListingSubmitted struct {
	PropertyID PropertyID
	OwnerID    string
	Status     Status
	At         time.Time
}

func (e ListingSubmitted) EventName() string     { return "listing.submitted" }
func (e ListingSubmitted) AggregateID() string   { return string(e.PropertyID) }
func (e ListingSubmitted) OccurredAt() time.Time { return e.At }

type ListingApproved struct {
	PropertyID PropertyID
	ReviewerID string
	At         time.Time
}

func (e ListingApproved) EventName() string     { return "listing.approved" }
func (e ListingApproved) AggregateID() string   { return string(e.PropertyID) }
func (e ListingApproved) OccurredAt() time.Time { return e.At }

type ListingRejected struct {
	PropertyID PropertyID
	ReviewerID string
	Notes      string
	At         time.Time
}

func (e ListingRejected) EventName() string     { return "listing.rejected" }
func (e ListingRejected) AggregateID() string   { return string(e.PropertyID) }
func (e ListingRejected) OccurredAt() time.Time { return e.At }

type ListingArchived struct {
	PropertyID PropertyID
	At         time.Time
}

func (e ListingArchived) EventName() string     { return "listing.archived" }
func (e ListingArchived) AggregateID() string   { return string(e.PropertyID) }
func (e ListingArchived) OccurredAt() time.Time { return e.At }

type ApprovalRepaired struct {
	PropertyID PropertyID
	From       ApprovalStatus
	To         ApprovalStatus
	At         time.Time
}

func (e ApprovalRepaired) EventName() string     { return "approval.repaired" }
func (e ApprovalRepaired) AggregateID() string   { return string(e.PropertyID) }
func (e ApprovalRepaired) OccurredAt() time.Time { return e.At }
