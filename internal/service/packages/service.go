package packages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
)

// Service учет предоплаченных пакетов клиента
// Политика списания "все или ничего": при нехватке остатка бронирование не покрывается вовсе
type Service struct {
	repo   PackageRepository
	logger Logger
}

// NewService создает новый экземпляр сервиса пакетов
func NewService(repo PackageRepository, logger Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Resolve возвращает остаток клиента по услуге во всех действующих подписках
func (s *Service) Resolve(ctx context.Context, tenantID, customerID, serviceID int64, now time.Time) (*Balance, error) {
	if customerID <= 0 || serviceID <= 0 {
		return nil, fmt.Errorf("%w: customerID and serviceID must be positive", ErrInvalidInput)
	}

	usages, err := s.repo.ListUsagesForService(ctx, tenantID, customerID, serviceID, now)
	if err != nil {
		s.logger.Error("Resolve: failed to list usages for customer=%d, service=%d: %v", customerID, serviceID, err)
		return nil, fmt.Errorf("%w: list usages: %w", ErrInternal, err)
	}

	balance := &Balance{
		CustomerID:    customerID,
		ServiceID:     serviceID,
		Subscriptions: make([]Contribution, 0, len(usages)),
	}
	for _, u := range usages {
		if u.Remaining() == 0 {
			continue
		}
		balance.Remaining += u.Remaining()
		balance.Subscriptions = append(balance.Subscriptions, Contribution{
			UsageID:        u.ID,
			SubscriptionID: u.SubscriptionID,
			PackageName:    u.Subscription.PackageName,
			ExpiresAt:      u.Subscription.ExpiresAt,
			Remaining:      u.Remaining(),
		})
	}

	return balance, nil
}

// Consume списывает Quantity единиц по подпискам в порядке приоритета
// Должен вызываться в транзакции фиксации бронирования: строки остатков блокируются
func (s *Service) Consume(ctx context.Context, req ConsumeRequest) (*ConsumeResult, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	usages, err := s.repo.ListUsagesForService(ctx, req.TenantID, req.CustomerID, req.ServiceID, req.Now)
	if err != nil {
		s.logger.Error("Consume: failed to list usages for customer=%d: %v", req.CustomerID, err)
		return nil, fmt.Errorf("%w: list usages: %w", ErrInternal, err)
	}

	// Нет подписок на услугу - пакет просто неприменим
	if len(usages) == 0 {
		return &ConsumeResult{}, nil
	}

	remaining := 0
	for _, u := range usages {
		remaining += u.Remaining()
	}

	if req.Quantity > remaining {
		exhaustion := &domain.PackageExhaustion{
			TenantID:   req.TenantID,
			CustomerID: req.CustomerID,
			ServiceID:  req.ServiceID,
			Requested:  req.Quantity,
			Remaining:  remaining,
		}
		if err := s.repo.CreateExhaustion(ctx, exhaustion); err != nil {
			return nil, fmt.Errorf("%w: record exhaustion: %w", ErrInternal, err)
		}

		s.logger.Info("Consume: customer=%d requested %d, only %d left - standard pricing",
			req.CustomerID, req.Quantity, remaining)
		return &ConsumeResult{Exhausted: true, Remaining: remaining, Exhaustion: exhaustion}, nil
	}

	allocations := make([]domain.PackageAllocation, 0)
	left := req.Quantity
	for _, u := range usages {
		if left == 0 {
			break
		}
		take := min(left, u.Remaining())
		if take == 0 {
			continue
		}

		if err := s.repo.IncrementUsed(ctx, u.ID, take); err != nil {
			if errors.Is(err, packagesRepo.ErrUsageConflict) {
				return nil, ErrBalanceChanged
			}
			return nil, fmt.Errorf("%w: increment usage: %w", ErrInternal, err)
		}

		allocations = append(allocations, domain.PackageAllocation{
			UsageID:        u.ID,
			SubscriptionID: u.SubscriptionID,
			Quantity:       take,
		})
		left -= take
	}

	s.logger.Info("Consume: customer=%d covered %d unit(s) from %d subscription(s)",
		req.CustomerID, req.Quantity, len(allocations))

	return &ConsumeResult{Covered: true, Remaining: remaining, Allocations: allocations}, nil
}

// RecordAllocations привязывает списание к созданному бронированию
func (s *Service) RecordAllocations(ctx context.Context, bookingID int64, allocations []domain.PackageAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	rows := make([]domain.PackageAllocation, len(allocations))
	for i, a := range allocations {
		a.BookingID = bookingID
		rows[i] = a
	}

	if err := s.repo.CreateAllocations(ctx, rows); err != nil {
		return fmt.Errorf("%w: create allocations: %w", ErrInternal, err)
	}
	return nil
}

// Restore возвращает списанные под бронирование единицы (отмена)
func (s *Service) Restore(ctx context.Context, bookingID int64) (int, error) {
	allocations, err := s.repo.ListAllocationsByBooking(ctx, bookingID)
	if err != nil {
		return 0, fmt.Errorf("%w: list allocations: %w", ErrInternal, err)
	}

	restored := 0
	for _, a := range allocations {
		if err := s.repo.IncrementUsed(ctx, a.UsageID, -a.Quantity); err != nil {
			if errors.Is(err, packagesRepo.ErrUsageConflict) {
				return 0, ErrBalanceChanged
			}
			return 0, fmt.Errorf("%w: restore usage: %w", ErrInternal, err)
		}
		restored += a.Quantity
	}

	if err := s.repo.DeleteAllocationsByBooking(ctx, bookingID); err != nil {
		return 0, fmt.Errorf("%w: delete allocations: %w", ErrInternal, err)
	}

	if restored > 0 {
		s.logger.Info("Restore: returned %d unit(s) for booking=%d", restored, bookingID)
	}
	return restored, nil
}
