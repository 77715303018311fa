package domain

import "time"

// EventType post-commit notification kind
type EventType string

const (
	EventBookingCreated     EventType = "booking.created"
	EventBookingRescheduled EventType = "booking.rescheduled"
	EventBookingCancelled   EventType = "booking.cancelled"
	EventPackageExhausted   EventType = "package.exhausted"
)

// Event is handed to downstream collaborators only after the transaction commits
type Event struct {
	Type       EventType         `json:"type"`
	TenantID   int64             `json:"tenantId"`
	BookingID  *int64            `json:"bookingId,omitempty"`
	CustomerID int64             `json:"customerId"`
	ServiceID  int64             `json:"serviceId"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
