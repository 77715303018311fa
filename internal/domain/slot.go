package domain

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// Slot is a concrete, date-scoped bookable window with finite capacity
type Slot struct {
	ID              int64
	TenantID        int64
	ServiceID       int64
	ShiftID         *int64 // service-based origin
	EmployeeShiftID *int64 // employee-based origin
	EmployeeID      *int64
	Date            time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	CapacityTotal   int
	CapacityBooked  int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FreeCapacity capacity left after confirmed bookings, ignoring locks
func (s *Slot) FreeCapacity() int {
	free := s.CapacityTotal - s.CapacityBooked
	if free < 0 {
		return 0
	}
	return free
}

// AvailableCapacity capacity left after bookings and the given active lock sum
func (s *Slot) AvailableCapacity(lockedCapacity int) int {
	available := s.CapacityTotal - s.CapacityBooked - lockedCapacity
	if available < 0 {
		return 0
	}
	return available
}

// IsEmployeeBased reports whether the slot belongs to a specific employee
func (s *Slot) IsEmployeeBased() bool {
	return s.EmployeeID != nil
}

// StartsAt the absolute start of the slot in loc
func (s *Slot) StartsAt(loc *time.Location) time.Time {
	date := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, loc)
	return s.StartTime.On(date)
}

// HasStarted reports whether the slot start has elapsed at now
func (s *Slot) HasStarted(now time.Time) bool {
	return !s.StartsAt(now.Location()).After(now)
}

// Interval time window of the slot
func (s *Slot) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}
