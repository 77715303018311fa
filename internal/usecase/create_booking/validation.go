package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// validateRequest валидирует входные данные
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	if req.SessionID == "" || len(req.SessionID) > domain.MaxSessionIDLength {
		return fmt.Errorf("%w: sessionID is required and must be at most %d characters", ErrInvalidInput, domain.MaxSessionIDLength)
	}

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}

	if len(req.Items) > domain.MaxBulkItems {
		return fmt.Errorf("%w: at most %d items per request", ErrInvalidInput, domain.MaxBulkItems)
	}

	locks := make(map[string]bool, len(req.Items))
	for i, item := range req.Items {
		if item.SlotID <= 0 {
			return fmt.Errorf("%w: items[%d].slotId must be positive", ErrInvalidInput, i)
		}
		if item.VisitorCount <= 0 || item.VisitorCount > domain.MaxVisitorsPerBooking {
			return fmt.Errorf("%w: items[%d].visitorCount must be between 1 and %d", ErrInvalidInput, i, domain.MaxVisitorsPerBooking)
		}
		if item.EmployeeID != nil && *item.EmployeeID <= 0 {
			return fmt.Errorf("%w: items[%d].employeeId must be positive", ErrInvalidInput, i)
		}
		if item.LockID != nil {
			if *item.LockID == "" {
				return fmt.Errorf("%w: items[%d].lockId must not be empty", ErrInvalidInput, i)
			}
			if locks[*item.LockID] {
				return fmt.Errorf("%w: lock %s is referenced twice", ErrInvalidInput, *item.LockID)
			}
			locks[*item.LockID] = true
		}
	}

	return nil
}
