package create_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_booking: invalid input data: %w", domain.ErrValidation)

	// ErrTenantNotFound возвращается, когда тенант не найден или неактивен
	ErrTenantNotFound = fmt.Errorf("create_booking: tenant not found: %w", domain.ErrNotFound)

	// ErrServiceNotFound возвращается, когда услуга не найдена или неактивна
	ErrServiceNotFound = fmt.Errorf("create_booking: service not found: %w", domain.ErrNotFound)

	// ErrSlotNotFound возвращается, когда слот не найден в тенанте или неактивен
	ErrSlotNotFound = fmt.Errorf("create_booking: slot not found: %w", domain.ErrNotFound)

	// ErrSlotServiceMismatch возвращается, когда слот относится к другой услуге
	ErrSlotServiceMismatch = fmt.Errorf("create_booking: slot belongs to another service: %w", domain.ErrValidation)

	// ErrSlotInPast возвращается, когда слот уже начался
	ErrSlotInPast = fmt.Errorf("create_booking: slot has already started: %w", domain.ErrValidation)

	// ErrCapacityExceeded возвращается, когда емкости слота не хватает в момент фиксации
	ErrCapacityExceeded = fmt.Errorf("create_booking: slot capacity exceeded: %w", domain.ErrCapacityExceeded)

	// ErrAutomaticNeedsLock возвращается, когда услуга назначает сотрудников только ротацией,
	// а позиция не ссылается на блокировку, захваченную по времени
	ErrAutomaticNeedsLock = fmt.Errorf("create_booking: automatic assignment requires a lock acquired by time: %w", domain.ErrValidation)

	// ErrEmployeeOverlap возвращается, когда позиции одного заказа пересекаются у одного сотрудника
	ErrEmployeeOverlap = fmt.Errorf("create_booking: employee is booked twice in one request: %w", domain.ErrEmployeeUnavailable)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
