package lifecycle

import "time"

// ReturnPolicy decides when an assigned asset is due back.
type ReturnPolicy interface {
	Deadline(assignedAt time.Time) time.Time
}

// FixedHorizon returns assets a fixed number of days after assignment.
type FixedHorizon struct {
	Days int
}

// DefaultHorizonDays is used when no horizon is configured.
const DefaultHorizonDays = 7

func (p FixedHorizon) Deadline(assignedAt time.Time) time.Time {
	days := p.Days
	if days <= 0 {
		days = DefaultHorizonDays
	}
	return assignedAt.Add(time.Duration(days) * 24 * time.Hour)
}
