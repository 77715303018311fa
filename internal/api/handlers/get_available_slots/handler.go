package get_available_slots

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
)

const (
	msgInvalidTenantID   = "некорректный ID тенанта"
	msgInvalidServiceID  = "некорректный ID услуги"
	msgInvalidEmployeeID = "некорректный ID сотрудника"
	msgInvalidFlag       = "некорректное значение флага, ожидается true или false"
	msgMissingDate       = "дата обязательна"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgDateInPast        = "дата в прошлом"
	msgTenantNotFound    = "тенант не найден"
	msgServiceNotFound   = "услуга не найдена"
)

var errorMessages = map[error]string{
	getAvailableSlots.ErrTenantNotFound:  msgTenantNotFound,
	getAvailableSlots.ErrServiceNotFound: msgServiceNotFound,
	getAvailableSlots.ErrInvalidDate:     msgDateInPast,
}

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/tenants/{tenantId}/services/{serviceId}/availability
// Query params: date (required, YYYY-MM-DD), employeeId, includeLocked, includePast
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("GET /availability - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	serviceID, err := handlers.PathInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("GET /availability - Invalid service ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	employeeID, err := handlers.QueryInt64(r, "employeeId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidEmployeeID)
		return
	}

	includeLocked, err := handlers.QueryBool(r, "includeLocked")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidFlag)
		return
	}
	includePast, err := handlers.QueryBool(r, "includePast")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidFlag)
		return
	}

	req, err := ToUseCaseRequest(tenantID, serviceID, dateStr, handlers.SessionID(r), employeeID, includeLocked, includePast)
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date %q: %v", dateStr, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("GET /availability - Failed to resolve availability: tenant_id=%d, service_id=%d, error=%v",
				tenantID, serviceID, err)
		} else {
			h.logger.Warn("GET /availability - Rejected: tenant_id=%d, service_id=%d, error=%v", tenantID, serviceID, err)
		}
		handlers.RespondDomainError(w, err, errorMessages)
		return
	}

	h.logger.Info("GET /availability - Returned %d slots: tenant_id=%d, service_id=%d, date=%s",
		len(result.Slots), tenantID, serviceID, dateStr)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
