package locks

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

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
}

// LockRepository интерфейс репозитория блокировок
type LockRepository interface {
	Create(ctx context.Context, lock *domain.ReservationLock) error
	GetByID(ctx context.Context, tenantID int64, id string) (*domain.ReservationLock, error)
	ListActiveBySlots(ctx context.Context, tenantID int64, slotIDs []int64, now time.Time) ([]*domain.ReservationLock, error)
	Delete(ctx context.Context, tenantID int64, id string) error
	DeleteBySlotAndSession(ctx context.Context, tenantID, slotID int64, sessionID string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SlotCatalog интерфейс каталога слотов
type SlotCatalog interface {
	EnsureSlots(ctx context.Context, tenant *domain.Tenant, service *domain.Service, date time.Time) ([]*domain.Slot, error)
}

// EmployeeAssigner интерфейс назначения сотрудников
type EmployeeAssigner interface {
	CheckAvailable(ctx context.Context, tenantID, employeeID int64, date time.Time, window domain.Interval, exclude assignment.Exclude) error
	ValidateManual(ctx context.Context, service *domain.Service, employeeID int64, slot *domain.Slot) error
	PickAutomatic(ctx context.Context, tenantID, serviceID int64, candidates []*domain.Slot, eligible func(slot *domain.Slot) (bool, error)) (*domain.Slot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики захвата и очистки блокировок
type Metrics interface {
	IncLockAcquisition(outcome string)
	AddLocksSwept(n int64)
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
