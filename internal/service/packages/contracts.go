package packages

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// PackageRepository интерфейс репозитория пакетов
type PackageRepository interface {
	ListUsagesForService(ctx context.Context, tenantID, customerID, serviceID int64, now time.Time) ([]*domain.PackageUsage, error)
	IncrementUsed(ctx context.Context, usageID int64, delta int) error
	CreateAllocations(ctx context.Context, allocations []domain.PackageAllocation) error
	ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.PackageAllocation, error)
	DeleteAllocationsByBooking(ctx context.Context, bookingID int64) error
	CreateExhaustion(ctx context.Context, e *domain.PackageExhaustion) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
