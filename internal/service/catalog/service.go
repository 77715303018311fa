package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// Service каталог слотов: лениво материализует слоты на дату из еженедельных шаблонов
type Service struct {
	slotRepo     SlotRepository
	scheduleRepo ScheduleRepository
	employees    EmployeeDirectory
	logger       Logger
}

// NewService создает новый экземпляр каталога слотов
func NewService(
	slotRepo SlotRepository,
	scheduleRepo ScheduleRepository,
	employees EmployeeDirectory,
	logger Logger,
) *Service {
	return &Service{
		slotRepo:     slotRepo,
		scheduleRepo: scheduleRepo,
		employees:    employees,
		logger:       logger,
	}
}

// EnsureSlots гарантирует наличие слотов услуги на дату и возвращает их
// Режим планирования определяется с учетом переопределения на уровне тенанта
func (s *Service) EnsureSlots(ctx context.Context, tenant *domain.Tenant, service *domain.Service, date time.Time) ([]*domain.Slot, error) {
	if domain.EffectiveSchedulingType(tenant, service) == domain.SchedulingEmployeeBased {
		return s.EnsureEmployeeSlots(ctx, tenant, service, date)
	}
	return s.EnsureServiceSlots(ctx, tenant, service, date)
}

// EnsureServiceSlots материализует слоты по сменам услуги
// Возвращаются только слоты смен, чей набор дней недели включает дату
func (s *Service) EnsureServiceSlots(ctx context.Context, tenant *domain.Tenant, service *domain.Service, date time.Time) ([]*domain.Slot, error) {
	day := domain.NormalizeDate(date)

	shifts, err := s.scheduleRepo.ListActiveShifts(ctx, tenant.ID, service.ID)
	if err != nil {
		s.logger.Error("EnsureServiceSlots: failed to list shifts for service=%d: %v", service.ID, err)
		return nil, fmt.Errorf("%w: list shifts: %w", ErrInternal, err)
	}

	covering := make(map[int64]bool)
	generated := make([]*domain.Slot, 0)
	for _, shift := range shifts {
		if !shift.CoversDate(day) {
			continue
		}
		covering[shift.ID] = true

		capacity := firstPositive(shift.Capacity, service.DefaultCapacity, domain.DefaultEmployeeCapacity)
		for _, w := range generateWindows(shift.StartTime, shift.EndTime, service.DurationMinutes) {
			generated = append(generated, &domain.Slot{
				TenantID:      tenant.ID,
				ServiceID:     service.ID,
				ShiftID:       ptr.Ptr(shift.ID),
				Date:          day,
				StartTime:     w.Start,
				EndTime:       w.End,
				CapacityTotal: capacity,
			})
		}
	}

	if len(covering) == 0 {
		s.logger.Info("EnsureServiceSlots: no active shift for service=%d on %s", service.ID, day.Format(domain.DateFormat))
		return nil, ErrNoActiveTemplate
	}

	if err := s.insert(ctx, generated); err != nil {
		return nil, err
	}

	all, err := s.slotRepo.ListByServiceAndDate(ctx, tenant.ID, service.ID, day)
	if err != nil {
		s.logger.Error("EnsureServiceSlots: failed to list slots for service=%d: %v", service.ID, err)
		return nil, fmt.Errorf("%w: list slots: %w", ErrInternal, err)
	}

	// Повторная фильтрация по дням недели: слоты смен, изменивших расписание, не показываем
	result := make([]*domain.Slot, 0, len(all))
	for _, slot := range all {
		if slot.ShiftID != nil && covering[*slot.ShiftID] && slot.EmployeeID == nil {
			result = append(result, slot)
		}
	}

	return result, nil
}

// EnsureEmployeeSlots материализует слоты по сменам активных сотрудников, назначенных на услугу
// Повторная генерация для уже заполненной пары (сотрудник, дата) не создает дубликатов
func (s *Service) EnsureEmployeeSlots(ctx context.Context, tenant *domain.Tenant, service *domain.Service, date time.Time) ([]*domain.Slot, error) {
	day := domain.NormalizeDate(date)

	employeeIDs, err := s.employees.ListServiceEmployeeIDs(ctx, tenant.ID, service.ID)
	if err != nil {
		s.logger.Error("EnsureEmployeeSlots: failed to list employees for service=%d: %v", service.ID, err)
		return nil, fmt.Errorf("%w: list employees: %w", ErrInternal, err)
	}
	if len(employeeIDs) == 0 {
		s.logger.Info("EnsureEmployeeSlots: no employees assigned to service=%d", service.ID)
		return nil, ErrNoActiveTemplate
	}

	shifts, err := s.scheduleRepo.ListActiveEmployeeShifts(ctx, tenant.ID, employeeIDs)
	if err != nil {
		s.logger.Error("EnsureEmployeeSlots: failed to list employee shifts for service=%d: %v", service.ID, err)
		return nil, fmt.Errorf("%w: list employee shifts: %w", ErrInternal, err)
	}

	capacity := firstPositive(service.DefaultCapacity, domain.DefaultEmployeeCapacity)
	working := make(map[int64]bool)
	generated := make([]*domain.Slot, 0)
	for _, shift := range shifts {
		if !shift.CoversDate(day) {
			continue
		}
		working[shift.EmployeeID] = true

		for _, w := range generateWindows(shift.StartTime, shift.EndTime, service.DurationMinutes) {
			generated = append(generated, &domain.Slot{
				TenantID:        tenant.ID,
				ServiceID:       service.ID,
				EmployeeShiftID: ptr.Ptr(shift.ID),
				EmployeeID:      ptr.Ptr(shift.EmployeeID),
				Date:            day,
				StartTime:       w.Start,
				EndTime:         w.End,
				CapacityTotal:   capacity,
			})
		}
	}

	if len(working) == 0 {
		s.logger.Info("EnsureEmployeeSlots: no employee shift for service=%d on %s", service.ID, day.Format(domain.DateFormat))
		return nil, ErrNoActiveTemplate
	}

	if err := s.insert(ctx, generated); err != nil {
		return nil, err
	}

	all, err := s.slotRepo.ListByServiceAndDate(ctx, tenant.ID, service.ID, day)
	if err != nil {
		s.logger.Error("EnsureEmployeeSlots: failed to list slots for service=%d: %v", service.ID, err)
		return nil, fmt.Errorf("%w: list slots: %w", ErrInternal, err)
	}

	result := make([]*domain.Slot, 0, len(all))
	for _, slot := range all {
		if slot.EmployeeID != nil && working[*slot.EmployeeID] {
			result = append(result, slot)
		}
	}

	return result, nil
}

func (s *Service) insert(ctx context.Context, slots []*domain.Slot) error {
	inserted, err := s.slotRepo.InsertIgnoreDuplicates(ctx, slots)
	if err != nil {
		s.logger.Error("EnsureSlots: failed to insert slots: %v", err)
		return fmt.Errorf("%w: insert slots: %w", ErrInternal, err)
	}
	if inserted > 0 {
		s.logger.Info("EnsureSlots: materialized %d new slots", inserted)
	}
	return nil
}

// generateWindows нарезает шаблон [start, end) на окна длительностью duration
// Неполное окно в конце шаблона не создается
func generateWindows(start, end types.TimeString, duration int) []domain.Interval {
	windows := make([]domain.Interval, 0)
	if duration <= 0 {
		return windows
	}

	current := start
	for current.IsBefore(end) {
		next, err := current.AddMinutes(duration)
		if err != nil || next.IsAfter(end) {
			break
		}
		windows = append(windows, domain.Interval{Start: current, End: next})
		current = next
	}

	return windows
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 1
}
