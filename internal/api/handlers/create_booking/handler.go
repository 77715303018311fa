package create_booking

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
	createBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
)

const (
	msgInvalidTenantID     = "некорректный ID тенанта"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgTenantNotFound      = "тенант не найден"
	msgServiceNotFound     = "услуга не найдена"
	msgSlotNotFound        = "слот не найден"
	msgSlotServiceMismatch = "слот относится к другой услуге"
	msgSlotInPast          = "слот уже начался"
	msgCapacityExceeded    = "в слоте недостаточно свободных мест"
	msgLockGone            = "блокировка слота истекла, выберите слот заново"
)

var errorMessages = map[error]string{
	createBooking.ErrTenantNotFound:      msgTenantNotFound,
	createBooking.ErrServiceNotFound:     msgServiceNotFound,
	createBooking.ErrSlotNotFound:        msgSlotNotFound,
	createBooking.ErrSlotServiceMismatch: msgSlotServiceMismatch,
	createBooking.ErrSlotInPast:          msgSlotInPast,
	createBooking.ErrCapacityExceeded:    msgCapacityExceeded,
	locks.ErrLockGone:                    msgLockGone,
}

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/tenants/{tenantId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("POST /bookings - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(tenantID, handlers.SessionID(r)))
	if err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("POST /bookings - Failed to create booking: tenant_id=%d, customer_id=%d, error=%v",
				tenantID, req.CustomerID, err)
		} else {
			h.logger.Warn("POST /bookings - Rejected: tenant_id=%d, customer_id=%d, error=%v",
				tenantID, req.CustomerID, err)
		}
		handlers.RespondDomainError(w, err, errorMessages)
		return
	}

	h.logger.Info("POST /bookings - Created %d booking(s): tenant_id=%d, customer_id=%d, total=%.2f",
		len(result.Bookings), tenantID, req.CustomerID, result.TotalPrice)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
