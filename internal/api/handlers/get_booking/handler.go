package get_booking

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings"
)

const (
	msgInvalidTenantID   = "некорректный ID тенанта"
	msgInvalidBookingID  = "некорректный ID бронирования"
	msgInvalidCustomerID = "некорректный ID клиента"
	msgNotFound          = "бронирование не найдено"
)

var errorMessages = map[error]string{
	bookings.ErrBookingNotFound: msgNotFound,
}

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenantId}/bookings/{bookingId}
// Query params: customerId (без него - доступ администратора тенанта)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("GET /bookings/{id} - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("GET /bookings/{id} - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	customerID, err := handlers.QueryInt64(r, "customerId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidCustomerID)
		return
	}
	var customer int64
	if customerID != nil {
		customer = *customerID
	}

	// Сервис сам проверит принадлежность бронирования клиенту
	booking, err := h.service.GetByID(r.Context(), tenantID, bookingID, customer)
	if err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("GET /bookings/{id} - Failed to get booking: booking_id=%d, error=%v", bookingID, err)
		} else {
			h.logger.Warn("GET /bookings/{id} - Booking not found: booking_id=%d, customer_id=%d", bookingID, customer)
		}
		handlers.RespondDomainError(w, err, errorMessages)
		return
	}

	h.logger.Info("GET /bookings/{id} - Booking retrieved successfully: booking_id=%d", bookingID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
