package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// UseCase use case для получения доступных слотов
type UseCase struct {
	catalogRepo  CatalogRepository
	slotCatalog  SlotCatalog
	lockRepo     LockRepository
	assigner     EmployeeAssigner
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalogRepo CatalogRepository,
	slotCatalog SlotCatalog,
	lockRepo LockRepository,
	assigner EmployeeAssigner,
	logger Logger,
) *UseCase {
	return &UseCase{
		catalogRepo:  catalogRepo,
		slotCatalog:  slotCatalog,
		lockRepo:     lockRepo,
		assigner:     assigner,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case получения доступных слотов
// Результат - снимок: окончательная проверка выполняется при фиксации бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: tenant=%d, service=%d, date=%s, session=%s",
		req.TenantID, req.ServiceID, req.Date.Format(domain.DateFormat), req.SessionID)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Тенант и услуга
	tenant, err := uc.catalogRepo.GetTenant(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrTenantNotFound) {
			uc.logger.Warn("GetAvailableSlots: tenant id=%d not found", req.TenantID)
			return nil, ErrTenantNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get tenant id=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: failed to get tenant: %w", ErrInternal, err)
	}
	if !tenant.IsActive {
		return nil, ErrTenantNotFound
	}

	service, err := uc.catalogRepo.GetService(ctx, req.TenantID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %w", ErrInternal, err)
	}
	if !service.IsActive {
		return nil, ErrServiceNotFound
	}

	// 3. "Сегодня" и "сейчас" - в часовом поясе тенанта
	now := uc.timeProvider.Now()
	localNow := now.In(tenant.Location())
	if !req.IncludePast {
		if err := validateDate(req.Date, localNow); err != nil {
			uc.logger.Warn("GetAvailableSlots: date %s is in the past", req.Date.Format(domain.DateFormat))
			return nil, err
		}
	}

	mode := domain.EffectiveSchedulingType(tenant, service)
	resp := &Response{
		Date:           domain.NormalizeDate(req.Date),
		TenantID:       tenant.ID,
		ServiceID:      service.ID,
		SchedulingType: mode,
		AssignmentMode: service.AssignmentMode,
		Slots:          []Slot{},
	}

	// 4. Слоты на дату (лениво материализуются из шаблонов)
	slots, err := uc.slotCatalog.EnsureSlots(ctx, tenant, service, req.Date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSlot) {
			uc.logger.Info("GetAvailableSlots: no schedule for service=%d on %s", service.ID, req.Date.Format(domain.DateFormat))
			return resp, nil
		}
		uc.logger.Error("GetAvailableSlots: failed to ensure slots: %v", err)
		return nil, fmt.Errorf("%w: failed to ensure slots: %w", ErrInternal, err)
	}

	if req.EmployeeID != nil {
		slots = onlyEmployee(slots, *req.EmployeeID)
	}
	if len(slots) == 0 {
		return resp, nil
	}

	// 5. Глобальная занятость сотрудников по всем услугам тенанта
	busy := assignment.BusyMap{}
	if employeeIDs := distinctEmployees(slots); len(employeeIDs) > 0 {
		busy, err = uc.assigner.BusyIntervals(ctx, tenant.ID, employeeIDs, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to compute busy intervals: %w", ErrInternal, err)
		}
	}

	// 6. Активные блокировки
	slotIDs := make([]int64, len(slots))
	for i, slot := range slots {
		slotIDs[i] = slot.ID
	}
	locks, err := uc.lockRepo.ListActiveBySlots(ctx, tenant.ID, slotIDs, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list locks: %v", err)
		return nil, fmt.Errorf("%w: failed to list locks: %w", ErrInternal, err)
	}

	// 7. Отбор строк
	resp.Slots = buildRows(slots, filterParams{
		busy:          busy,
		locks:         sumLocks(locks, req.SessionID, now),
		now:           localNow,
		duration:      service.DurationMinutes,
		includeLocked: req.IncludeLocked,
		includePast:   req.IncludePast,
	})

	// 8. Подсказка ротации: строки сотрудников не схлопываются
	if mode == domain.SchedulingEmployeeBased && service.AssignmentMode.AllowsAutomatic() && req.EmployeeID == nil {
		if err := uc.attachRotationHints(ctx, tenant.ID, service.ID, resp.Slots); err != nil {
			return nil, err
		}
	}

	uc.logger.Info("GetAvailableSlots: %d of %d slots bookable for service=%d on %s",
		len(resp.Slots), len(slots), service.ID, req.Date.Format(domain.DateFormat))

	return resp, nil
}

// attachRotationHints помечает для каждого времени начала следующего сотрудника ротации
func (uc *UseCase) attachRotationHints(ctx context.Context, tenantID, serviceID int64, rows []Slot) error {
	byTime, order := candidatesByTime(rows)
	for _, start := range order {
		suggested, ok, err := uc.assigner.RotationHint(ctx, tenantID, serviceID, byTime[start])
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to compute rotation hint: %v", err)
			return fmt.Errorf("%w: failed to compute rotation hint: %w", ErrInternal, err)
		}
		if !ok {
			continue
		}
		for i := range rows {
			if rows[i].StartTime != start {
				continue
			}
			rows[i].SuggestedEmployeeID = ptr.Ptr(suggested)
			rows[i].IsSuggested = rows[i].EmployeeID != nil && *rows[i].EmployeeID == suggested
		}
	}
	return nil
}

func onlyEmployee(slots []*domain.Slot, employeeID int64) []*domain.Slot {
	out := make([]*domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.EmployeeID != nil && *slot.EmployeeID == employeeID {
			out = append(out, slot)
		}
	}
	return out
}

func distinctEmployees(slots []*domain.Slot) []int64 {
	seen := make(map[int64]bool)
	ids := make([]int64, 0)
	for _, slot := range slots {
		if slot.EmployeeID == nil || seen[*slot.EmployeeID] {
			continue
		}
		seen[*slot.EmployeeID] = true
		ids = append(ids, *slot.EmployeeID)
	}
	return ids
}
