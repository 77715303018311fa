package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
)

// CatalogRepository интерфейс справочника тенантов и услуг
type CatalogRepository interface {
	GetTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error)
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
	AdjustBooked(ctx context.Context, tenantID, id int64, delta int) error
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// LockManager интерфейс менеджера блокировок
type LockManager interface {
	Consume(ctx context.Context, tenantID int64, lockID, sessionID string, slotID int64, now time.Time) (*domain.ReservationLock, error)
	Available(ctx context.Context, slot *domain.Slot, sessionID string, now time.Time) (int, error)
	DropSessionLocks(ctx context.Context, tenantID, slotID int64, sessionID string) (int, error)
}

// EmployeeAssigner интерфейс назначения сотрудников
type EmployeeAssigner interface {
	CheckAvailable(ctx context.Context, tenantID, employeeID int64, date time.Time, window domain.Interval, exclude assignment.Exclude) error
	ValidateManual(ctx context.Context, service *domain.Service, employeeID int64, slot *domain.Slot) error
	ValidateAssigned(ctx context.Context, service *domain.Service, employeeID int64) error
	Advance(ctx context.Context, tenantID, serviceID, employeeID int64) error
}

// PackageLedger интерфейс учета предоплаченных пакетов
type PackageLedger interface {
	Consume(ctx context.Context, req packages.ConsumeRequest) (*packages.ConsumeResult, error)
	RecordAllocations(ctx context.Context, bookingID int64, allocations []domain.PackageAllocation) error
}

// EventDispatcher интерфейс асинхронной доставки событий после фиксации
type EventDispatcher interface {
	Dispatch(events ...domain.Event)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчик результатов фиксации
type Metrics interface {
	IncBookingCommit(operation, outcome string)
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
