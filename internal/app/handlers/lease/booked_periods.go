package lease

import (
	"context"
	"time"

	"rentverse/internal/app/queries"
	"rentverse/internal/app/uow"
	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
)

const bookedPeriodsKey = "lease.booked_periods"

// defaultCalendarHorizon bounds the window when the caller omits one.
const defaultCalendarHorizon = 365 * 24 * time.Hour

type BookedPeriodsQuery struct {
	PropertyID string
	From       time.Time
	To         time.Time
}

func (q BookedPeriodsQuery) Key() string { return bookedPeriodsKey }

type BookedPeriod struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}

type BookedPeriodsResult struct {
	PropertyID string         `json:"property_id"`
	Periods    []BookedPeriod `json:"periods"`
}

// BookedPeriodsHandler is the calendar projection: active leases intersecting
// the window, ordered by start date. Snapshot read, no ordering guarantee
// relative to concurrent writers.
type BookedPeriodsHandler struct {
	UoWFactory uow.Factory
}

func (h *BookedPeriodsHandler) Handle(ctx context.Context, q BookedPeriodsQuery) (*BookedPeriodsResult, error) {
	window, err := h.window(q)
	if err != nil {
		return nil, err
	}
	var periods []domainlease.Period
	err = uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		active, err := unit.Leases().ActiveInRange(ctx, domainproperty.PropertyID(q.PropertyID), window, "")
		if err != nil {
			return err
		}
		periods = domainlease.BookedPeriods(active, window)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := &BookedPeriodsResult{PropertyID: q.PropertyID, Periods: make([]BookedPeriod, 0, len(periods))}
	for _, p := range periods {
		result.Periods = append(result.Periods, BookedPeriod{
			Start:  p.Range.Start,
			End:    p.Range.End,
			Status: string(p.Status),
		})
	}
	return result, nil
}

func (h *BookedPeriodsHandler) window(q BookedPeriodsQuery) (daterange.DateRange, error) {
	from := q.From
	to := q.To
	if from.IsZero() {
		from = time.Now()
	}
	if to.IsZero() {
		to = from.Add(defaultCalendarHorizon)
	}
	return daterange.New(from, to)
}

var _ queries.Handler[BookedPeriodsQuery, *BookedPeriodsResult] = (*BookedPeriodsHandler)(nil)
