package cancel_booking

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
// CustomerID = 0 - отмена администратором тенанта
type CancelBookingRequest struct {
	CustomerID         int64   `json:"customerId"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(tenantID, bookingID int64) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		TenantID:           tenantID,
		BookingID:          bookingID,
		CustomerID:         r.CustomerID,
		CancellationReason: r.CancellationReason,
	}
}
