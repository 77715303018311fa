package reschedule_booking

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// validateRequest валидирует входные данные
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}

	if req.BookingID <= 0 {
		return fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}

	if req.CustomerID < 0 {
		return fmt.Errorf("%w: customerID must not be negative", ErrInvalidInput)
	}

	if req.NewSlotID <= 0 {
		return fmt.Errorf("%w: newSlotId must be positive", ErrInvalidInput)
	}

	if req.SessionID == "" || len(req.SessionID) > domain.MaxSessionIDLength {
		return fmt.Errorf("%w: sessionID is required and must be at most %d characters", ErrInvalidInput, domain.MaxSessionIDLength)
	}

	if req.LockID != nil && *req.LockID == "" {
		return fmt.Errorf("%w: lockId must not be empty", ErrInvalidInput)
	}

	return nil
}
