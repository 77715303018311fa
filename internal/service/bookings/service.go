package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

// Service сервис для работы с зафиксированными бронированиями: просмотр, отмена, смена статуса
type Service struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	catalogRepo  CatalogRepository
	packages     PackageLedger
	dispatcher   EventDispatcher
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	catalogRepo CatalogRepository,
	packages PackageLedger,
	dispatcher EventDispatcher,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		catalogRepo:  catalogRepo,
		packages:     packages,
		dispatcher:   dispatcher,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование по ID
// Клиент видит только свое бронирование; customerID = 0 - доступ администратора тенанта
func (s *Service) GetByID(ctx context.Context, tenantID, bookingID, customerID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for tenant=%d", bookingID, tenantID)

	booking, err := s.bookingRepo.GetByID(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", bookingID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %w", ErrInternal, err)
	}

	if customerID != 0 && booking.CustomerID != customerID {
		s.logger.Warn("GetByID: booking id=%d belongs to another customer", bookingID)
		return nil, ErrBookingNotFound
	}

	return models.FromDomainBooking(booking), nil
}

// GetCustomerBookings получает историю бронирований клиента
func (s *Service) GetCustomerBookings(ctx context.Context, tenantID, customerID int64) (*models.BookingListResponse, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	var bookings []*domain.Booking
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		bookings, err = s.bookingRepo.ListByCustomer(txCtx, tenantID, customerID)
		return err
	})
	if err != nil {
		s.logger.Error("GetCustomerBookings: repository error for customer=%d: %v", customerID, err)
		return nil, fmt.Errorf("%w: GetCustomerBookings - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainBookings(bookings), nil
}

// Cancel отменяет бронирование: возвращает емкость слота и списания по пакетам,
// аннулирует входной токен. Все изменения - в одной транзакции
func (s *Service) Cancel(ctx context.Context, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: booking id=%d, tenant=%d, customer=%d", req.BookingID, req.TenantID, req.CustomerID)

	if req.CancellationReason != nil && len(*req.CancellationReason) > domain.MaxCancellationReasonLen {
		return nil, fmt.Errorf("%w: cancellation reason is longer than %d", ErrInvalidInput, domain.MaxCancellationReasonLen)
	}

	now := s.timeProvider.Now()
	var cancelled *domain.Booking
	restored := 0

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, req.TenantID, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: get booking: %w", ErrInternal, err)
		}

		if req.CustomerID != 0 && booking.CustomerID != req.CustomerID {
			return ErrBookingNotFound
		}

		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d has status %s", booking.ID, booking.Status)
			return ErrCannotCancel
		}

		// Блокируем строку слота перед изменением счетчика
		if _, err := s.slotRepo.GetByID(txCtx, booking.TenantID, booking.SlotID); err != nil {
			return fmt.Errorf("%w: get slot: %w", ErrInternal, err)
		}

		if err := s.slotRepo.AdjustBooked(txCtx, booking.TenantID, booking.SlotID, -booking.VisitorCount); err != nil {
			if errors.Is(err, slotRepo.ErrCapacityConflict) {
				s.logger.Error("Cancel: slot=%d counter below booking id=%d visitors", booking.SlotID, booking.ID)
				return ErrCapacityOutOfSync
			}
			return fmt.Errorf("%w: release capacity: %w", ErrInternal, err)
		}

		if booking.PackageCovered {
			restored, err = s.packages.Restore(txCtx, booking.ID)
			if err != nil {
				return err
			}
		}

		if err := s.bookingRepo.Cancel(txCtx, booking.TenantID, booking.ID, req.CancellationReason, now); err != nil {
			return fmt.Errorf("%w: cancel booking: %w", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelled
		booking.CancellationReason = req.CancellationReason
		booking.CancelledAt = &now
		booking.EntryToken = nil
		cancelled = booking
		return nil
	})

	if err != nil {
		s.metrics.IncBookingCommit("cancel", "error")
		s.logger.Warn("Cancel: booking id=%d failed: %v", req.BookingID, err)
		return nil, err
	}

	s.metrics.IncBookingCommit("cancel", "ok")

	payload := map[string]string{"slotId": strconv.FormatInt(cancelled.SlotID, 10)}
	if restored > 0 {
		payload["packageRestored"] = strconv.Itoa(restored)
	}
	s.dispatcher.Dispatch(domain.Event{
		Type:       domain.EventBookingCancelled,
		TenantID:   cancelled.TenantID,
		BookingID:  &cancelled.ID,
		CustomerID: cancelled.CustomerID,
		ServiceID:  cancelled.ServiceID,
		Payload:    payload,
		OccurredAt: now,
	})

	s.logger.Info("Cancel: booking id=%d cancelled, %d package unit(s) restored", cancelled.ID, restored)
	return models.FromDomainBooking(cancelled), nil
}

// UpdateStatus меняет статус бронирования
// Допустимые переходы: pending_payment -> confirmed, confirmed -> completed | no_show
// Завершение и неявка отмечаются только после начала времени бронирования:
// до этого бронирование держит емкость слота и время сотрудника
func (s *Service) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) error {
	s.logger.Info("UpdateStatus: booking id=%d -> %s", req.BookingID, req.Status)

	status, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		return ErrInvalidStatus
	}
	if status == domain.StatusCancelled {
		return fmt.Errorf("%w: use cancel to cancel a booking", ErrInvalidTransition)
	}

	return s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, req.TenantID, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: get booking: %w", ErrInternal, err)
		}

		if !allowedTransition(booking.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
		}

		if status == domain.StatusCompleted || status == domain.StatusNoShow {
			tenant, err := s.catalogRepo.GetTenant(txCtx, req.TenantID)
			if err != nil {
				if errors.Is(err, catalogRepo.ErrTenantNotFound) {
					return ErrTenantNotFound
				}
				return fmt.Errorf("%w: get tenant: %w", ErrInternal, err)
			}
			if !booking.HasStarted(s.timeProvider.Now().In(tenant.Location())) {
				return fmt.Errorf("%w: booking=%d starts at %s %s", ErrNotStarted,
					booking.ID, booking.BookingDate.Format(domain.DateFormat), booking.StartTime)
			}
		}

		if err := s.bookingRepo.UpdateStatus(txCtx, req.TenantID, req.BookingID, status); err != nil {
			return fmt.Errorf("%w: update status: %w", ErrInternal, err)
		}
		return nil
	})
}

func allowedTransition(from, to domain.BookingStatus) bool {
	switch from {
	case domain.StatusPendingPayment:
		return to == domain.StatusConfirmed
	case domain.StatusConfirmed:
		return to == domain.StatusCompleted || to == domain.StatusNoShow
	default:
		return false
	}
}
