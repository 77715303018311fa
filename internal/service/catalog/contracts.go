package catalog

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	InsertIgnoreDuplicates(ctx context.Context, slots []*domain.Slot) (int, error)
	ListByServiceAndDate(ctx context.Context, tenantID, serviceID int64, date time.Time) ([]*domain.Slot, error)
}

// ScheduleRepository интерфейс репозитория шаблонов расписания
type ScheduleRepository interface {
	ListActiveShifts(ctx context.Context, tenantID, serviceID int64) ([]*domain.Shift, error)
	ListActiveEmployeeShifts(ctx context.Context, tenantID int64, employeeIDs []int64) ([]*domain.EmployeeShift, error)
}

// EmployeeDirectory интерфейс получения сотрудников услуги
type EmployeeDirectory interface {
	ListServiceEmployeeIDs(ctx context.Context, tenantID, serviceID int64) ([]int64, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
