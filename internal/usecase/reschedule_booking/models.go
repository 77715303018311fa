package reschedule_booking

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

// Request модель запроса на перенос бронирования в другой слот
type Request struct {
	TenantID   int64
	BookingID  int64
	CustomerID int64 // 0 - перенос администратором тенанта
	SessionID  string
	NewSlotID  int64
	LockID     *string // блокировка на новый слот (опционально)
}

// Response перенесенное бронирование с новым входным токеном
type Response struct {
	Booking   *models.BookingResponse
	OldSlotID int64
}
