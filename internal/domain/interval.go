package domain

import "github.com/m04kA/SMC-ReservationEngine/pkg/types"

// Interval half-open time-of-day window [Start, End)
type Interval struct {
	Start types.TimeString
	End   types.TimeString
}

// Overlaps uses strict inequalities: windows that only touch do not overlap
//
//	09:00-10:00 vs 09:30-10:30 -> true
//	09:00-10:00 vs 10:00-11:00 -> false
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.IsBefore(other.End) && i.End.IsAfter(other.Start)
}
