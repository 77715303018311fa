package domain

import "time"

// Default configuration values
const (
	DefaultLockTTL          = 10 * time.Minute
	DefaultEmployeeCapacity = 1
	DefaultTimezone         = "UTC"
)

// Business validation constants
const (
	MinServiceDurationMinutes = 5
	MaxServiceDurationMinutes = 720
	MaxVisitorsPerBooking     = 100
	MaxBulkItems              = 50
	MaxSessionIDLength        = 128
	MaxCancellationReasonLen  = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// HoldingStatuses statuses that occupy slot capacity and employee time
var HoldingStatuses = []BookingStatus{
	StatusPendingPayment,
	StatusConfirmed,
}

// NormalizeDate calendar date of t as midnight UTC, the form dates are stored in
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether both instants fall on the same calendar day
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
