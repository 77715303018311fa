package acquire_lock

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
)

const (
	msgInvalidTenantID    = "некорректный ID тенанта"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSlotTime    = "укажите slotId или serviceId, date (YYYY-MM-DD) и startTime (HH:MM)"
	msgSlotNotFound       = "слот не найден"
	msgSlotInPast         = "слот уже начался"
	msgNoSlotAtTime       = "на выбранное время нет свободного слота"
)

var errorMessages = map[error]string{
	locks.ErrSlotNotFound: msgSlotNotFound,
	locks.ErrSlotInPast:   msgSlotInPast,
	locks.ErrNoSlotAtTime: msgNoSlotAtTime,
}

type Handler struct {
	service LockService
	logger  Logger
}

func NewHandler(service LockService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/tenants/{tenantId}/locks
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("POST /locks - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	var req AcquireLockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /locks - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	sessionID := handlers.SessionID(r)
	serviceReq, err := req.ToServiceRequest(tenantID, sessionID)
	if err != nil {
		h.logger.Warn("POST /locks - Failed to parse slot time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotTime)
		return
	}

	result, err := h.service.Acquire(r.Context(), serviceReq)
	if err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("POST /locks - Failed to acquire lock: tenant_id=%d, session=%s, error=%v", tenantID, sessionID, err)
		} else {
			h.logger.Warn("POST /locks - Rejected: tenant_id=%d, session=%s, error=%v", tenantID, sessionID, err)
		}
		handlers.RespondDomainError(w, err, errorMessages)
		return
	}

	h.logger.Info("POST /locks - Lock acquired: lock_id=%s, slot_id=%d, session=%s",
		result.Lock.ID, result.Slot.ID, sessionID)
	handlers.RespondJSON(w, http.StatusCreated, FromServiceResult(result))
}
