package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/config"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	lockRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/lock"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
	rotationRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/rotation"
	scheduleRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

// Полные наборы методов хранилища: им удовлетворяют и postgres, и memory реализации

type catalogStore interface {
	GetTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error)
	GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error)
	GetEmployee(ctx context.Context, tenantID, employeeID int64) (*domain.Employee, error)
	ListServiceEmployeeIDs(ctx context.Context, tenantID, serviceID int64) ([]int64, error)
	IsEmployeeAssigned(ctx context.Context, tenantID, employeeID, serviceID int64) (bool, error)
}

type scheduleStore interface {
	ListActiveShifts(ctx context.Context, tenantID, serviceID int64) ([]*domain.Shift, error)
	ListActiveEmployeeShifts(ctx context.Context, tenantID int64, employeeIDs []int64) ([]*domain.EmployeeShift, error)
}

type slotStore interface {
	InsertIgnoreDuplicates(ctx context.Context, slots []*domain.Slot) (int, error)
	ListByServiceAndDate(ctx context.Context, tenantID, serviceID int64, date time.Time) ([]*domain.Slot, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error)
	AdjustBooked(ctx context.Context, tenantID, id int64, delta int) error
}

type lockStore interface {
	Create(ctx context.Context, lock *domain.ReservationLock) error
	GetByID(ctx context.Context, tenantID int64, id string) (*domain.ReservationLock, error)
	ListActiveBySlots(ctx context.Context, tenantID int64, slotIDs []int64, now time.Time) ([]*domain.ReservationLock, error)
	Delete(ctx context.Context, tenantID int64, id string) error
	DeleteBySlotAndSession(ctx context.Context, tenantID, slotID int64, sessionID string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error)
	ListHoldingByEmployees(ctx context.Context, tenantID int64, employeeIDs []int64, date time.Time) ([]*domain.Booking, error)
	ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]*domain.Booking, error)
	UpdateSchedule(ctx context.Context, booking *domain.Booking) error
	UpdateStatus(ctx context.Context, tenantID, id int64, status domain.BookingStatus) error
	Cancel(ctx context.Context, tenantID, id int64, reason *string, cancelledAt time.Time) error
}

type packageStore interface {
	ListUsagesForService(ctx context.Context, tenantID, customerID, serviceID int64, now time.Time) ([]*domain.PackageUsage, error)
	IncrementUsed(ctx context.Context, usageID int64, delta int) error
	CreateAllocations(ctx context.Context, allocations []domain.PackageAllocation) error
	ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.PackageAllocation, error)
	DeleteAllocationsByBooking(ctx context.Context, bookingID int64) error
	CreateExhaustion(ctx context.Context, e *domain.PackageExhaustion) error
}

type rotationStore interface {
	Get(ctx context.Context, tenantID, serviceID int64) (*domain.RotationPointer, error)
	Set(ctx context.Context, pointer *domain.RotationPointer) error
}

type txManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// repositories хранилище, выбранное в конфигурации
type repositories struct {
	catalog   catalogStore
	schedules scheduleStore
	slots     slotStore
	locks     lockStore
	bookings  bookingStore
	packages  packageStore
	rotation  rotationStore
	tx        txManager

	close func()
}

func openPostgres(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*repositories, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	stopMetricsCh := make(chan struct{})
	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, m, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	return &repositories{
		catalog:   catalogRepo.NewRepository(wrappedDB),
		schedules: scheduleRepo.NewRepository(wrappedDB),
		slots:     slotRepo.NewRepository(wrappedDB),
		locks:     lockRepo.NewRepository(wrappedDB),
		bookings:  bookingRepo.NewRepository(wrappedDB),
		packages:  packagesRepo.NewRepository(wrappedDB),
		rotation:  rotationRepo.NewRepository(wrappedDB),
		tx:        storage.NewTransactor(txmanager.NewTransactionManager(wrappedDB)),
		close: func() {
			close(stopMetricsCh)
			_ = db.Close()
		},
	}, nil
}

func openMemory(cfg *config.Config, log *logger.Logger) (*repositories, error) {
	store := memory.NewStore()
	if cfg.Storage.SeedPath != "" {
		if err := store.LoadSeed(cfg.Storage.SeedPath); err != nil {
			return nil, err
		}
		log.Info("In-memory storage seeded from %s", cfg.Storage.SeedPath)
	}
	log.Warn("Using in-memory storage: data is lost on restart")

	return &repositories{
		catalog:   store.Catalog(),
		schedules: store.Schedules(),
		slots:     store.Slots(),
		locks:     store.Locks(),
		bookings:  store.Bookings(),
		packages:  store.Packages(),
		rotation:  store.Rotation(),
		tx:        store,
		close:     func() {},
	}, nil
}
