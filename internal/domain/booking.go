package domain

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusCompleted      BookingStatus = "completed"
	StatusNoShow         BookingStatus = "no_show"
)

// Booking is a committed reservation of slot capacity.
// Created only by the booking transaction engine.
type Booking struct {
	ID                    int64
	TenantID              int64
	SlotID                int64
	ServiceID             int64
	EmployeeID            *int64
	CustomerID            int64
	SessionID             string
	VisitorCount          int
	Status                BookingStatus
	Price                 float64
	PackageCovered        bool
	PackageSubscriptionID *int64
	EntryToken            *string // entry credential, rotated on reschedule
	BookingDate           time.Time
	StartTime             types.TimeString
	EndTime               types.TimeString

	RescheduledAt      *time.Time
	CancelledAt        *time.Time
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsHolding returns true if the booking occupies slot capacity and employee time
func (b *Booking) IsHolding() bool {
	return b.Status == StatusPendingPayment || b.Status == StatusConfirmed
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.IsHolding()
}

// CanBeRescheduled returns true if the booking can move to another slot
func (b *Booking) CanBeRescheduled() bool {
	return b.IsHolding()
}

// HasStarted reports whether the booked window has begun at now (in the tenant location)
func (b *Booking) HasStarted(now time.Time) bool {
	date := time.Date(b.BookingDate.Year(), b.BookingDate.Month(), b.BookingDate.Day(), 0, 0, 0, 0, now.Location())
	return !b.StartTime.On(date).After(now)
}

// Interval time window of the booking
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// InitialStatus status of a freshly committed booking under the tenant policy
func InitialStatus(tenant *Tenant, price float64) BookingStatus {
	if tenant != nil && tenant.RequirePayment && price > 0 {
		return StatusPendingPayment
	}
	return StatusConfirmed
}
