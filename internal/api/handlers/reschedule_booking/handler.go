package reschedule_booking

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
	rescheduleBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/reschedule_booking"
)

const (
	msgInvalidTenantID     = "некорректный ID тенанта"
	msgInvalidBookingID    = "некорректный ID бронирования"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgNotFound            = "бронирование не найдено"
	msgCannotReschedule    = "бронирование не может быть перенесено"
	msgSameSlot            = "бронирование уже находится в этом слоте"
	msgSlotNotFound        = "слот не найден"
	msgSlotServiceMismatch = "слот относится к другой услуге"
	msgSlotInPast          = "слот уже начался"
	msgCapacityExceeded    = "в новом слоте недостаточно свободных мест"
	msgLockGone            = "блокировка слота истекла, выберите слот заново"
)

var errorMessages = map[error]string{
	rescheduleBooking.ErrBookingNotFound:     msgNotFound,
	rescheduleBooking.ErrCannotReschedule:    msgCannotReschedule,
	rescheduleBooking.ErrSameSlot:            msgSameSlot,
	rescheduleBooking.ErrSlotNotFound:        msgSlotNotFound,
	rescheduleBooking.ErrSlotServiceMismatch: msgSlotServiceMismatch,
	rescheduleBooking.ErrSlotInPast:          msgSlotInPast,
	rescheduleBooking.ErrCapacityExceeded:    msgCapacityExceeded,
	locks.ErrLockGone:                        msgLockGone,
}

type Handler struct {
	useCase RescheduleBookingUseCase
	logger  Logger
}

func NewHandler(useCase RescheduleBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/tenants/{tenantId}/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(tenantID, bookingID, handlers.SessionID(r)))
	if err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("PATCH /bookings/{id}/reschedule - Failed to reschedule: booking_id=%d, error=%v", bookingID, err)
		} else {
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Rejected: booking_id=%d, new_slot_id=%d, error=%v",
				bookingID, req.NewSlotID, err)
		}
		handlers.RespondDomainError(w, err, errorMessages)
		return
	}

	h.logger.Info("PATCH /bookings/{id}/reschedule - Booking moved: booking_id=%d, slot %d -> %d",
		bookingID, result.OldSlotID, result.Booking.SlotID)
	handlers.RespondJSON(w, http.StatusOK, result.Booking)
}
