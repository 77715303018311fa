package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
)

// CatalogRepository интерфейс справочника тенантов и услуг
type CatalogRepository interface {
	GetTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error)
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
}

// SlotCatalog интерфейс каталога слотов
type SlotCatalog interface {
	EnsureSlots(ctx context.Context, tenant *domain.Tenant, service *domain.Service, date time.Time) ([]*domain.Slot, error)
}

// LockRepository интерфейс чтения активных блокировок
type LockRepository interface {
	ListActiveBySlots(ctx context.Context, tenantID int64, slotIDs []int64, now time.Time) ([]*domain.ReservationLock, error)
}

// EmployeeAssigner интерфейс занятости сотрудников и ротации
type EmployeeAssigner interface {
	BusyIntervals(ctx context.Context, tenantID int64, employeeIDs []int64, date time.Time) (assignment.BusyMap, error)
	RotationHint(ctx context.Context, tenantID, serviceID int64, candidates []int64) (int64, bool, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
