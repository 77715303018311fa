package get_customer_packages

import (
	"net/http"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
)

const (
	msgInvalidTenantID   = "некорректный ID тенанта"
	msgInvalidCustomerID = "некорректный ID клиента"
	msgMissingServiceID  = "ID услуги обязателен"
)

type Handler struct {
	service      PackageService
	timeProvider TimeProvider
	logger       Logger
}

func NewHandler(service PackageService, logger Logger) *Handler {
	return &Handler{
		service:      service,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (h *Handler) WithTimeProvider(tp TimeProvider) *Handler {
	h.timeProvider = tp
	return h
}

// Handle GET /api/v1/tenants/{tenantId}/customers/{customerId}/packages
// Query params: serviceId (required)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID, err := handlers.PathInt64(r, "tenantId")
	if err != nil {
		h.logger.Warn("GET /customers/{id}/packages - Invalid tenant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTenantID)
		return
	}

	customerID, err := handlers.PathInt64(r, "customerId")
	if err != nil {
		h.logger.Warn("GET /customers/{id}/packages - Invalid customer ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCustomerID)
		return
	}

	serviceID, err := handlers.QueryInt64(r, "serviceId")
	if err != nil || serviceID == nil {
		handlers.RespondBadRequest(w, msgMissingServiceID)
		return
	}

	balance, err := h.service.Resolve(r.Context(), tenantID, customerID, *serviceID, h.timeProvider.Now())
	if err != nil {
		if handlers.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("GET /customers/{id}/packages - Failed to resolve balance: customer_id=%d, error=%v", customerID, err)
		} else {
			h.logger.Warn("GET /customers/{id}/packages - Rejected: customer_id=%d, error=%v", customerID, err)
		}
		handlers.RespondDomainError(w, err, nil)
		return
	}

	h.logger.Info("GET /customers/{id}/packages - Balance resolved: customer_id=%d, service_id=%d, remaining=%d",
		customerID, *serviceID, balance.Remaining)
	handlers.RespondJSON(w, http.StatusOK, FromBalance(balance))
}
