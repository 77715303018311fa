package reschedule_booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// UseCase use case переноса бронирования в другой слот
type UseCase struct {
	catalogRepo  CatalogRepository
	slotRepo     SlotRepository
	bookingRepo  BookingRepository
	locks        LockManager
	assigner     EmployeeAssigner
	dispatcher   EventDispatcher
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalogRepo CatalogRepository,
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	locks LockManager,
	assigner EmployeeAssigner,
	dispatcher EventDispatcher,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		catalogRepo:  catalogRepo,
		slotRepo:     slotRepo,
		bookingRepo:  bookingRepo,
		locks:        locks,
		assigner:     assigner,
		dispatcher:   dispatcher,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute переносит бронирование: освобождает емкость старого слота и занимает емкость нового
// в одной транзакции, перепроверяя емкость и занятость сотрудника. Входной токен перевыпускается
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleBooking: tenant=%d, booking=%d, newSlot=%d, session=%s",
		req.TenantID, req.BookingID, req.NewSlotID, req.SessionID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		uc.metrics.IncBookingCommit("reschedule", "invalid")
		return nil, err
	}

	var (
		updated   *domain.Booking
		oldSlotID int64
		now       time.Time
	)

	// 2. Перенос в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		now = uc.timeProvider.Now()

		// 2.1. Тенант
		tenant, err := uc.catalogRepo.GetTenant(txCtx, req.TenantID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrTenantNotFound) {
				return ErrTenantNotFound
			}
			return fmt.Errorf("%w: get tenant: %w", ErrInternal, err)
		}
		if !tenant.IsActive {
			return ErrTenantNotFound
		}

		// 2.2. Бронирование (строка блокируется)
		booking, err := uc.bookingRepo.GetByID(txCtx, req.TenantID, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: get booking: %w", ErrInternal, err)
		}
		if req.CustomerID != 0 && booking.CustomerID != req.CustomerID {
			return ErrBookingNotFound
		}
		if !booking.CanBeRescheduled() {
			return ErrCannotReschedule
		}
		if booking.SlotID == req.NewSlotID {
			return ErrSameSlot
		}

		service, err := uc.catalogRepo.GetService(txCtx, req.TenantID, booking.ServiceID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrServiceNotFound) {
				return ErrServiceNotFound
			}
			return fmt.Errorf("%w: get service: %w", ErrInternal, err)
		}

		// 2.3. Оба слота блокируются в порядке возрастания id
		oldSlot, newSlot, err := uc.lockSlots(txCtx, req.TenantID, booking.SlotID, req.NewSlotID)
		if err != nil {
			return err
		}
		if !newSlot.IsActive {
			return ErrSlotNotFound
		}
		if newSlot.ServiceID != booking.ServiceID {
			return ErrSlotServiceMismatch
		}
		if newSlot.HasStarted(now.In(tenant.Location())) {
			return ErrSlotInPast
		}

		// 2.4. Блокировка на новый слот
		if req.LockID != nil {
			if _, err := uc.locks.Consume(txCtx, req.TenantID, *req.LockID, req.SessionID, newSlot.ID, now); err != nil {
				return err
			}
		}

		// 2.5. Емкость нового слота
		available, err := uc.locks.Available(txCtx, newSlot, req.SessionID, now)
		if err != nil {
			return err
		}
		if booking.VisitorCount > available {
			return fmt.Errorf("%w: slot=%d requested=%d available=%d", ErrCapacityExceeded, newSlot.ID, booking.VisitorCount, available)
		}
		if _, err := uc.locks.DropSessionLocks(txCtx, req.TenantID, newSlot.ID, req.SessionID); err != nil {
			return err
		}

		// 2.6. Сотрудник нового слота; само переносимое бронирование не конфликтует
		if newSlot.EmployeeID != nil {
			if !service.AssignmentMode.AllowsManual() && req.LockID == nil {
				return ErrAutomaticNeedsLock
			}
			if err := uc.assigner.ValidateAssigned(txCtx, service, *newSlot.EmployeeID); err != nil {
				return err
			}
			if err := uc.assigner.CheckAvailable(txCtx, req.TenantID, *newSlot.EmployeeID, newSlot.Date, newSlot.Interval(),
				assignment.Exclude{SlotID: newSlot.ID, BookingID: booking.ID}); err != nil {
				return err
			}
		}

		// 2.7. Перенос емкости
		if err := uc.slotRepo.AdjustBooked(txCtx, req.TenantID, oldSlot.ID, -booking.VisitorCount); err != nil {
			return fmt.Errorf("%w: release old slot=%d: %w", ErrInternal, oldSlot.ID, err)
		}
		if err := uc.slotRepo.AdjustBooked(txCtx, req.TenantID, newSlot.ID, booking.VisitorCount); err != nil {
			if errors.Is(err, slotRepo.ErrCapacityConflict) {
				return fmt.Errorf("%w: slot=%d", ErrCapacityExceeded, newSlot.ID)
			}
			return fmt.Errorf("%w: acquire new slot=%d: %w", ErrInternal, newSlot.ID, err)
		}

		// 2.8. Новое время и новый входной токен: старый токен больше не действует
		oldSlotID = booking.SlotID
		booking.SlotID = newSlot.ID
		booking.EmployeeID = newSlot.EmployeeID
		booking.BookingDate = newSlot.Date
		booking.StartTime = newSlot.StartTime
		booking.EndTime = newSlot.EndTime
		booking.EntryToken = ptr.Ptr(uuid.NewString())
		booking.RescheduledAt = ptr.Ptr(now)

		if err := uc.bookingRepo.UpdateSchedule(txCtx, booking); err != nil {
			return fmt.Errorf("%w: update booking: %w", ErrInternal, err)
		}

		updated = booking
		return nil
	})

	if err != nil {
		uc.metrics.IncBookingCommit("reschedule", outcome(err))
		uc.logger.Warn("RescheduleBooking: booking=%d failed: %v", req.BookingID, err)
		return nil, err
	}

	uc.metrics.IncBookingCommit("reschedule", "ok")

	uc.dispatcher.Dispatch(domain.Event{
		Type:       domain.EventBookingRescheduled,
		TenantID:   updated.TenantID,
		BookingID:  ptr.Ptr(updated.ID),
		CustomerID: updated.CustomerID,
		ServiceID:  updated.ServiceID,
		Payload: map[string]string{
			"oldSlotId":  strconv.FormatInt(oldSlotID, 10),
			"newSlotId":  strconv.FormatInt(updated.SlotID, 10),
			"date":       updated.BookingDate.Format(domain.DateFormat),
			"startTime":  updated.StartTime.String(),
			"entryToken": *updated.EntryToken,
		},
		OccurredAt: now,
	})

	uc.logger.Info("RescheduleBooking: booking=%d moved from slot=%d to slot=%d", updated.ID, oldSlotID, updated.SlotID)

	return &Response{Booking: models.FromDomainBooking(updated), OldSlotID: oldSlotID}, nil
}

// lockSlots блокирует старый и новый слоты в порядке возрастания id
func (uc *UseCase) lockSlots(ctx context.Context, tenantID, oldID, newID int64) (*domain.Slot, *domain.Slot, error) {
	ids := []int64{oldID, newID}
	if newID < oldID {
		ids = []int64{newID, oldID}
	}

	slots := make(map[int64]*domain.Slot, 2)
	for _, id := range ids {
		slot, err := uc.slotRepo.GetByID(ctx, tenantID, id)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				if id == oldID {
					return nil, nil, fmt.Errorf("%w: slot=%d of the booking is missing", ErrInternal, id)
				}
				return nil, nil, ErrSlotNotFound
			}
			return nil, nil, fmt.Errorf("%w: get slot=%d: %w", ErrInternal, id, err)
		}
		slots[id] = slot
	}

	return slots[oldID], slots[newID], nil
}

// outcome метка результата для метрик
func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrEmployeeUnavailable):
		return "employee_unavailable"
	case errors.Is(err, domain.ErrLockExpired), errors.Is(err, domain.ErrLockMismatch):
		return "lock_rejected"
	case errors.Is(err, domain.ErrTransient):
		return "conflict"
	default:
		return "error"
	}
}
