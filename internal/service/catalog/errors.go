package catalog

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrNoActiveTemplate возвращается, когда на дату нет ни одного активного шаблона
	// Для клиента это означает "нет свободного времени", а не системную ошибку
	ErrNoActiveTemplate = fmt.Errorf("catalog: no active schedule template for the date: %w", domain.ErrInvalidSlot)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("catalog: internal error")
)
