package release_lock

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
)

const (
	msgInvalidTenantID = "некорректный ID тенанта"
	msgLockNotFound    = "блокировка не найдена или уже истекла"
)

var errorMessages = map[error]string{
	locks.ErrLockNotFound: msgLockNotFound,
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

// Handle DELETE /api/v1/tenants/{tenantId}/locks/{lockId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("DELETE /locks/{id} - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	lockID := mux.Vars(r)["lockId"]
	sessionID := handlers.SessionID(r)

	if err := h.service.Release(r.Context(), tenantID, sessionID, lockID); err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("DELETE /locks/{id} - Failed to release lock: lock_id=%s, error=%v", lockID, err)
		} else {
			h.logger.Warn("DELETE /locks/{id} - Rejected: lock_id=%s, session=%s, error=%v", lockID, sessionID, err)
		}
		handlers.RespondDomainError(w, err, errorMessages)
		return
	}

	h.logger.Info("DELETE /locks/{id} - Lock released: lock_id=%s", lockID)
	w.WriteHeader(http.StatusNoContent)
}
