package locks

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("locks: invalid input data: %w", domain.ErrValidation)

	// ErrTenantNotFound возвращается, когда тенант не найден или неактивен
	ErrTenantNotFound = fmt.Errorf("locks: tenant not found: %w", domain.ErrNotFound)

	// ErrServiceNotFound возвращается, когда услуга не найдена или неактивна
	ErrServiceNotFound = fmt.Errorf("locks: service not found: %w", domain.ErrNotFound)

	// ErrSlotNotFound возвращается, когда слот не найден в тенанте или неактивен
	ErrSlotNotFound = fmt.Errorf("locks: slot not found: %w", domain.ErrNotFound)

	// ErrSlotInPast возвращается, когда слот уже начался
	ErrSlotInPast = fmt.Errorf("locks: slot has already started: %w", domain.ErrValidation)

	// ErrAutomaticAssignment возвращается, когда слот сотрудника выбирается напрямую,
	// а услуга назначает сотрудников только ротацией
	ErrAutomaticAssignment = fmt.Errorf("locks: service assigns employees automatically, acquire by time: %w", domain.ErrValidation)

	// ErrNoSlotAtTime возвращается, когда на указанное время нет подходящего слота
	ErrNoSlotAtTime = fmt.Errorf("locks: no bookable slot at the requested time: %w", domain.ErrCapacityExceeded)

	// ErrCapacityExceeded возвращается, когда запрошено больше свободной емкости
	ErrCapacityExceeded = fmt.Errorf("locks: requested capacity exceeds available: %w", domain.ErrCapacityExceeded)

	// ErrLockNotFound возвращается, когда блокировка не найдена (истекла и удалена или уже использована)
	ErrLockNotFound = fmt.Errorf("locks: reservation lock not found: %w", domain.ErrNotFound)

	// ErrLockGone возвращается при фиксации, если блокировки уже нет
	ErrLockGone = fmt.Errorf("locks: reservation lock no longer exists: %w", domain.ErrLockExpired)

	// ErrLockExpired возвращается, когда срок блокировки истек
	ErrLockExpired = fmt.Errorf("locks: reservation lock expired: %w", domain.ErrLockExpired)

	// ErrLockMismatch возвращается, когда блокировка принадлежит другой сессии или другому слоту
	ErrLockMismatch = fmt.Errorf("locks: reservation lock belongs to another session or slot: %w", domain.ErrLockMismatch)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("locks: internal error")
)
