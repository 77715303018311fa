package domain

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// Weekdays set of days of week, 0 = Sunday ... 6 = Saturday
type Weekdays []int

// Contains reports whether the set includes the weekday
func (w Weekdays) Contains(day time.Weekday) bool {
	for _, d := range w {
		if d == int(day) {
			return true
		}
	}
	return false
}

// Valid reports whether every entry is a real weekday
func (w Weekdays) Valid() bool {
	if len(w) == 0 {
		return false
	}
	for _, d := range w {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

// Shift is a recurring service-level availability template
type Shift struct {
	ID        int64
	TenantID  int64
	ServiceID int64
	Weekdays  Weekdays
	StartTime types.TimeString
	EndTime   types.TimeString
	Capacity  int // 0 = take service default
	IsActive  bool
}

// CoversDate reports whether the template produces windows on the date
func (s *Shift) CoversDate(date time.Time) bool {
	return s.IsActive && s.Weekdays.Contains(date.Weekday())
}

// EmployeeShift is a recurring availability template of one employee, independent of services
type EmployeeShift struct {
	ID         int64
	TenantID   int64
	EmployeeID int64
	Weekdays   Weekdays
	StartTime  types.TimeString
	EndTime    types.TimeString
	IsActive   bool
}

// CoversDate reports whether the template produces windows on the date
func (s *EmployeeShift) CoversDate(date time.Time) bool {
	return s.IsActive && s.Weekdays.Contains(date.Weekday())
}
