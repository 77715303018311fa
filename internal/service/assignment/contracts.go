package assignment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// BookingRepository интерфейс выборки бронирований, занимающих время сотрудников
type BookingRepository interface {
	ListHoldingByEmployees(ctx context.Context, tenantID int64, employeeIDs []int64, date time.Time) ([]*domain.Booking, error)
}

// EmployeeRepository интерфейс справочника сотрудников
type EmployeeRepository interface {
	GetEmployee(ctx context.Context, tenantID, employeeID int64) (*domain.Employee, error)
	IsEmployeeAssigned(ctx context.Context, tenantID, employeeID, serviceID int64) (bool, error)
}

// RotationRepository интерфейс указателей ротации
type RotationRepository interface {
	Get(ctx context.Context, tenantID, serviceID int64) (*domain.RotationPointer, error)
	Set(ctx context.Context, pointer *domain.RotationPointer) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
