package packages

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("packages: invalid input data: %w", domain.ErrValidation)

	// ErrBalanceChanged возвращается, когда остаток изменился между чтением и списанием
	ErrBalanceChanged = fmt.Errorf("packages: package balance changed concurrently: %w", domain.ErrTransient)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("packages: internal error")
)
