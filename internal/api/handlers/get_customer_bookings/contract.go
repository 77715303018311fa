package get_customer_bookings

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

type BookingService interface {
	GetCustomerBookings(ctx context.Context, tenantID, customerID int64) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
