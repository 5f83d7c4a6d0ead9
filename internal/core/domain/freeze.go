package domain

import (
	"fmt"
	"time"
)

// FreezePolicy decides which timesheet dates may no longer be edited.
//
// Once the reference date's day-of-month passes CutoffDay, every date before
// the first day of the reference month is frozen. Until then the previous
// month stays open and only older months are frozen.
type FreezePolicy struct {
	CutoffDay int
}

// NewFreezePolicy validates cutoffDay and returns a policy.
func NewFreezePolicy(cutoffDay int) (FreezePolicy, error) {
	if cutoffDay < 1 || cutoffDay > 31 {
		return FreezePolicy{}, fmt.Errorf("%w: freeze day of month must be within 1..31, got %d", ErrInvalidArgument, cutoffDay)
	}
	return FreezePolicy{CutoffDay: cutoffDay}, nil
}

// Boundary returns the earliest date that is still editable relative to ref.
func (p FreezePolicy) Boundary(ref time.Time) time.Time {
	ref = DateOf(ref)
	firstOfMonth := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	if ref.Day() > p.CutoffDay {
		return firstOfMonth
	}
	return firstOfMonth.AddDate(0, -1, 0)
}

// IsFrozen reports whether date can no longer be edited relative to ref.
func (p FreezePolicy) IsFrozen(date, ref time.Time) bool {
	return DateOf(date).Before(p.Boundary(ref))
}

// NotYetFrozen returns the dates that are still editable, in input order.
func (p FreezePolicy) NotYetFrozen(dates []time.Time, ref time.Time) []time.Time {
	boundary := p.Boundary(ref)
	open := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if !DateOf(d).Before(boundary) {
			open = append(open, d)
		}
	}
	return open
}
