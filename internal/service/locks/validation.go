package locks

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// validateSession проверяет идентификатор сессии оформления
func validateSession(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionID is required", ErrInvalidInput)
	}
	if len(sessionID) > domain.MaxSessionIDLength {
		return fmt.Errorf("%w: sessionID is longer than %d", ErrInvalidInput, domain.MaxSessionIDLength)
	}
	return nil
}

// validateAcquire валидирует входные данные захвата
func validateAcquire(req *AcquireRequest) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}

	if err := validateSession(req.SessionID); err != nil {
		return err
	}

	if req.RequestedCapacity <= 0 || req.RequestedCapacity > domain.MaxVisitorsPerBooking {
		return fmt.Errorf("%w: requested capacity must be between 1 and %d", ErrInvalidInput, domain.MaxVisitorsPerBooking)
	}

	if req.SlotID > 0 {
		return nil
	}

	// Без SlotID слот подбирается по времени
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: either slotID or serviceID with date and startTime is required", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %w", ErrInvalidInput, err)
	}
	if req.EmployeeID != nil && *req.EmployeeID <= 0 {
		return fmt.Errorf("%w: employeeID must be positive", ErrInvalidInput)
	}

	return nil
}
