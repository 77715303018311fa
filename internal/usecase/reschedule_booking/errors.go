package reschedule_booking

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("reschedule_booking: invalid input data: %w", domain.ErrValidation)

	// ErrBookingNotFound возвращается, когда бронирование не найдено или принадлежит другому клиенту
	ErrBookingNotFound = fmt.Errorf("reschedule_booking: booking not found: %w", domain.ErrNotFound)

	// ErrCannotReschedule возвращается, когда бронирование в конечном статусе
	ErrCannotReschedule = fmt.Errorf("reschedule_booking: booking cannot be rescheduled: %w", domain.ErrValidation)

	// ErrSameSlot возвращается при переносе на тот же слот
	ErrSameSlot = fmt.Errorf("reschedule_booking: booking is already in this slot: %w", domain.ErrValidation)

	// ErrTenantNotFound возвращается, когда тенант не найден или неактивен
	ErrTenantNotFound = fmt.Errorf("reschedule_booking: tenant not found: %w", domain.ErrNotFound)

	// ErrServiceNotFound возвращается, когда услуга бронирования не найдена
	ErrServiceNotFound = fmt.Errorf("reschedule_booking: service not found: %w", domain.ErrNotFound)

	// ErrSlotNotFound возвращается, когда новый слот не найден или неактивен
	ErrSlotNotFound = fmt.Errorf("reschedule_booking: slot not found: %w", domain.ErrNotFound)

	// ErrSlotServiceMismatch возвращается, когда новый слот относится к другой услуге
	ErrSlotServiceMismatch = fmt.Errorf("reschedule_booking: slot belongs to another service: %w", domain.ErrValidation)

	// ErrSlotInPast возвращается, когда новый слот уже начался
	ErrSlotInPast = fmt.Errorf("reschedule_booking: slot has already started: %w", domain.ErrValidation)

	// ErrCapacityExceeded возвращается, когда в новом слоте не хватает емкости
	ErrCapacityExceeded = fmt.Errorf("reschedule_booking: slot capacity exceeded: %w", domain.ErrCapacityExceeded)

	// ErrAutomaticNeedsLock возвращается, когда услуга назначает сотрудников только ротацией,
	// а новый слот выбран без блокировки, захваченной по времени
	ErrAutomaticNeedsLock = fmt.Errorf("reschedule_booking: automatic assignment requires a lock acquired by time: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_booking: internal error")
)
