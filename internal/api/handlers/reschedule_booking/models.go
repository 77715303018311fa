package reschedule_booking

import (
	rescheduleBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/reschedule_booking"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	CustomerID int64   `json:"customerId"`
	NewSlotID  int64   `json:"newSlotId"`
	LockID     *string `json:"lockId,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RescheduleBookingRequest) ToUseCaseRequest(tenantID, bookingID int64, sessionID string) *rescheduleBooking.Request {
	return &rescheduleBooking.Request{
		TenantID:   tenantID,
		BookingID:  bookingID,
		CustomerID: r.CustomerID,
		SessionID:  sessionID,
		NewSlotID:  r.NewSlotID,
		LockID:     r.LockID,
	}
}
