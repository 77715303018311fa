package get_customer_bookings

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
)

const (
	msgInvalidTenantID   = "некорректный ID тенанта"
	msgInvalidCustomerID = "некорректный ID клиента"
)

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

// Handle GET /api/v1/tenants/{tenantId}/customers/{customerId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("GET /customers/{id}/bookings - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	customerID, err := handlers.PathInt64(r, "customerId")
	if err != nil {
		h.logger.Warn("GET /customers/{id}/bookings - Invalid customer ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCustomerID)
		return
	}

	result, err := h.service.GetCustomerBookings(r.Context(), tenantID, customerID)
	if err != nil {
		h.logger.Error("GET /customers/{id}/bookings - Failed to list bookings: customer_id=%d, error=%v", customerID, err)
		handlers.RespondDomainError(w, err, nil)
		return
	}

	h.logger.Info("GET /customers/{id}/bookings - Returned %d bookings: customer_id=%d", len(result.Bookings), customerID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
