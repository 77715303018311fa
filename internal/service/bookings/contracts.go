package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, tenantID, id int64, status domain.BookingStatus) error
	Cancel(ctx context.Context, tenantID, id int64, reason *string, cancelledAt time.Time) error
}

// CatalogRepository интерфейс справочника тенантов
type CatalogRepository interface {
	GetTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
	AdjustBooked(ctx context.Context, tenantID, id int64, delta int) error
}

// PackageLedger интерфейс возврата списаний по пакетам
type PackageLedger interface {
	Restore(ctx context.Context, bookingID int64) (int, error)
}

// EventDispatcher интерфейс асинхронной доставки событий после фиксации
type EventDispatcher interface {
	Dispatch(events ...domain.Event)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчик результатов операций с бронированиями
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
