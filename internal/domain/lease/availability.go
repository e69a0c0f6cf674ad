package lease

import (
	"context"
	"sort"

	"rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
)

// Available reports whether the candidate range collides with none of the
// given leases. Only leases holding a calendar slot count; ranges are
// half-open, so a lease ending exactly where the candidate starts does not
// conflict.
func Available(existing []*Lease, candidate daterange.DateRange) bool {
	for _, l := range existing {
		if !l.Status.HoldsCalendarSlot() {
			continue
		}
		if l.Range.Overlaps(candidate) {
			return false
		}
	}
	return true
}

// CheckAvailability fetches the active leases overlapping the candidate and
// decides availability. Pure read; a storage failure propagates unchanged.
func CheckAvailability(ctx context.Context, repo Repository, propertyID property.PropertyID, candidate daterange.DateRange, exclude LeaseID) (bool, error) {
	overlapping, err := repo.ActiveInRange(ctx, propertyID, candidate, exclude)
	if err != nil {
		return false, err
	}
	return Available(overlapping, candidate), nil
}

// Period is one occupied slot on a property calendar.
type Period struct {
	Range  daterange.DateRange
	Status Status
}

// BookedPeriods projects the active leases intersecting the window onto
// {range, status} entries ordered by start date ascending.
func BookedPeriods(leases []*Lease, window daterange.DateRange) []Period {
	periods := make([]Period, 0, len(leases))
	for _, l := range leases {
		if !l.Status.HoldsCalendarSlot() {
			continue
		}
		if !l.Range.Overlaps(window) {
			continue
		}
		periods = append(periods, Period{Range: l.Range, Status: l.Status})
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Range.Start.Before(periods[j].Range.Start)
	})
	return periods
}
