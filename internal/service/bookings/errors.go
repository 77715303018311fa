package bookings

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	// (в том числе если оно принадлежит другому клиенту)
	ErrBookingNotFound = fmt.Errorf("booking not found: %w", domain.ErrNotFound)

	// ErrCannotCancel возвращается, когда бронирование не может быть отменено
	ErrCannotCancel = fmt.Errorf("booking cannot be cancelled: %w", domain.ErrValidation)

	// ErrInvalidStatus возвращается при попытке установить недопустимый статус
	ErrInvalidStatus = fmt.Errorf("invalid booking status: %w", domain.ErrValidation)

	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = fmt.Errorf("booking status transition is not allowed: %w", domain.ErrValidation)

	// ErrNotStarted возвращается при попытке завершить бронирование до начала его времени
	ErrNotStarted = fmt.Errorf("booking has not started yet: %w", domain.ErrValidation)

	// ErrTenantNotFound возвращается, когда тенант бронирования не найден
	ErrTenantNotFound = fmt.Errorf("tenant not found: %w", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("invalid input data: %w", domain.ErrValidation)

	// ErrCapacityOutOfSync возвращается, когда счетчик слота не согласован с бронированием
	ErrCapacityOutOfSync = errors.New("service: slot capacity is out of sync with booking")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
