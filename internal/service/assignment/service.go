package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// Service назначение сотрудников: проверка ручного выбора, ротация и глобальная занятость
type Service struct {
	bookingRepo  BookingRepository
	employeeRepo EmployeeRepository
	rotationRepo RotationRepository
	logger       Logger
}

// NewService создает новый экземпляр сервиса назначения
func NewService(
	bookingRepo BookingRepository,
	employeeRepo EmployeeRepository,
	rotationRepo RotationRepository,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		employeeRepo: employeeRepo,
		rotationRepo: rotationRepo,
		logger:       logger,
	}
}

// BusyIntervals вычисляет занятость сотрудников на дату по всем услугам тенанта
func (s *Service) BusyIntervals(ctx context.Context, tenantID int64, employeeIDs []int64, date time.Time) (BusyMap, error) {
	bookings, err := s.bookingRepo.ListHoldingByEmployees(ctx, tenantID, employeeIDs, date)
	if err != nil {
		s.logger.Error("BusyIntervals: failed to list bookings for tenant=%d: %v", tenantID, err)
		return nil, fmt.Errorf("%w: list bookings: %w", ErrInternal, err)
	}
	return NewBusyMap(bookings), nil
}

// CheckAvailable проверяет глобальную занятость сотрудника в момент фиксации
// Внутри транзакции строка сотрудника блокируется первой: параллельные фиксации
// на одного сотрудника по разным услугам выполняются последовательно
func (s *Service) CheckAvailable(ctx context.Context, tenantID, employeeID int64, date time.Time, window domain.Interval, exclude Exclude) error {
	employee, err := s.employeeRepo.GetEmployee(ctx, tenantID, employeeID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrEmployeeNotFound) {
			return ErrEmployeeNotFound
		}
		s.logger.Error("CheckAvailable: failed to get employee=%d: %v", employeeID, err)
		return fmt.Errorf("%w: get employee: %w", ErrInternal, err)
	}
	if !employee.IsActive {
		return ErrEmployeeInactive
	}

	busy, err := s.BusyIntervals(ctx, tenantID, []int64{employeeID}, date)
	if err != nil {
		return err
	}

	if busy.IsBusy(employeeID, window, exclude) {
		s.logger.Warn("CheckAvailable: employee=%d busy at %s-%s on %s",
			employeeID, window.Start, window.End, date.Format(domain.DateFormat))
		return ErrEmployeeBusy
	}

	return nil
}

// ValidateManual проверяет ручной выбор сотрудника клиентом
func (s *Service) ValidateManual(ctx context.Context, service *domain.Service, employeeID int64, slot *domain.Slot) error {
	if !service.AssignmentMode.AllowsManual() {
		return ErrManualNotAllowed
	}

	if slot.EmployeeID == nil || *slot.EmployeeID != employeeID {
		return ErrSlotEmployeeMismatch
	}

	return s.ValidateAssigned(ctx, service, employeeID)
}

// ValidateAssigned проверяет, что сотрудник активен и оказывает услугу
func (s *Service) ValidateAssigned(ctx context.Context, service *domain.Service, employeeID int64) error {
	employee, err := s.employeeRepo.GetEmployee(ctx, service.TenantID, employeeID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrEmployeeNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("%w: get employee: %w", ErrInternal, err)
	}
	if !employee.IsActive {
		return ErrEmployeeInactive
	}

	assigned, err := s.employeeRepo.IsEmployeeAssigned(ctx, service.TenantID, employeeID, service.ID)
	if err != nil {
		return fmt.Errorf("%w: check assignment: %w", ErrInternal, err)
	}
	if !assigned {
		return ErrNotAssigned
	}

	return nil
}

// RotationHint возвращает следующего сотрудника ротации среди кандидатов без блокировки указателя
// Используется для подсказки при показе свободного времени
func (s *Service) RotationHint(ctx context.Context, tenantID, serviceID int64, candidates []int64) (int64, bool, error) {
	pointer, err := s.rotationRepo.Get(ctx, tenantID, serviceID)
	if err != nil {
		return 0, false, fmt.Errorf("%w: get rotation pointer: %w", ErrInternal, err)
	}

	id, ok := NextEmployee(candidates, pointer.LastEmployeeID, nil)
	return id, ok, nil
}

// PickAutomatic выбирает пару (сотрудник, слот) по ротации среди слотов одного времени суток
// Вызывается внутри транзакции: указатель ротации блокируется до фиксации
// eligible решает, может ли сотрудник взять слот (занятость, свободная емкость)
func (s *Service) PickAutomatic(
	ctx context.Context,
	tenantID, serviceID int64,
	candidates []*domain.Slot,
	eligible func(slot *domain.Slot) (bool, error),
) (*domain.Slot, error) {
	pointer, err := s.rotationRepo.Get(ctx, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: get rotation pointer: %w", ErrInternal, err)
	}

	byEmployee := make(map[int64]*domain.Slot, len(candidates))
	ids := make([]int64, 0, len(candidates))
	for _, slot := range candidates {
		if slot.EmployeeID == nil {
			continue
		}
		if _, dup := byEmployee[*slot.EmployeeID]; dup {
			continue
		}
		byEmployee[*slot.EmployeeID] = slot
		ids = append(ids, *slot.EmployeeID)
	}

	for _, id := range RotationOrder(ids, pointer.LastEmployeeID) {
		ok, err := eligible(byEmployee[id])
		if err != nil {
			return nil, err
		}
		if ok {
			s.logger.Info("PickAutomatic: service=%d picked employee=%d", serviceID, id)
			return byEmployee[id], nil
		}
	}

	return nil, ErrNoEligibleEmployee
}

// Advance сдвигает указатель ротации услуги на назначенного сотрудника
// Вызывается в той же транзакции, что и фиксация бронирования
func (s *Service) Advance(ctx context.Context, tenantID, serviceID, employeeID int64) error {
	if err := s.rotationRepo.Set(ctx, &domain.RotationPointer{
		TenantID:       tenantID,
		ServiceID:      serviceID,
		LastEmployeeID: ptr.Ptr(employeeID),
	}); err != nil {
		s.logger.Error("Advance: failed to move rotation pointer for service=%d: %v", serviceID, err)
		return fmt.Errorf("%w: set rotation pointer: %w", ErrInternal, err)
	}
	return nil
}
