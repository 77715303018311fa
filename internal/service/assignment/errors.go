package assignment

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrEmployeeBusy возвращается, когда у сотрудника есть пересекающееся бронирование по любой услуге тенанта
	ErrEmployeeBusy = fmt.Errorf("assignment: employee is busy at the requested time: %w", domain.ErrEmployeeUnavailable)

	// ErrEmployeeInactive возвращается, когда сотрудник деактивирован
	ErrEmployeeInactive = fmt.Errorf("assignment: employee is inactive: %w", domain.ErrEmployeeUnavailable)

	// ErrNoEligibleEmployee возвращается, когда все кандидаты ротации заняты
	ErrNoEligibleEmployee = fmt.Errorf("assignment: no eligible employee at the requested time: %w", domain.ErrEmployeeUnavailable)

	// ErrEmployeeNotFound возвращается, когда сотрудник не найден в тенанте
	ErrEmployeeNotFound = fmt.Errorf("assignment: employee not found: %w", domain.ErrNotFound)

	// ErrManualNotAllowed возвращается, когда услуга не допускает ручной выбор сотрудника
	ErrManualNotAllowed = fmt.Errorf("assignment: manual employee selection is not allowed for the service: %w", domain.ErrValidation)

	// ErrNotAssigned возвращается, когда сотрудник не оказывает услугу
	ErrNotAssigned = fmt.Errorf("assignment: employee is not assigned to the service: %w", domain.ErrValidation)

	// ErrSlotEmployeeMismatch возвращается, когда выбранный слот принадлежит другому сотруднику
	ErrSlotEmployeeMismatch = fmt.Errorf("assignment: slot belongs to another employee: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("assignment: internal error")
)
