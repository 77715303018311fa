package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	lockRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/lock"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
)

// Service менеджер временных блокировок емкости слотов на время оформления
type Service struct {
	catalogRepo  CatalogRepository
	slotRepo     SlotRepository
	lockRepo     LockRepository
	slotCatalog  SlotCatalog
	assigner     EmployeeAssigner
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	ttl          time.Duration
}

// NewService создает новый экземпляр менеджера блокировок
// ttl <= 0 заменяется на domain.DefaultLockTTL
func NewService(
	catalogRepo CatalogRepository,
	slotRepo SlotRepository,
	lockRepo LockRepository,
	slotCatalog SlotCatalog,
	assigner EmployeeAssigner,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	ttl time.Duration,
) *Service {
	if ttl <= 0 {
		ttl = domain.DefaultLockTTL
	}
	return &Service{
		catalogRepo:  catalogRepo,
		slotRepo:     slotRepo,
		lockRepo:     lockRepo,
		slotCatalog:  slotCatalog,
		assigner:     assigner,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		ttl:          ttl,
	}
}

// WithTimeProvider подменяет источник времени (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// TTL срок жизни выдаваемых блокировок
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Acquire захватывает емкость слота для сессии
// Прежняя блокировка этой же сессии на слот заменяется новой
func (s *Service) Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResult, error) {
	s.logger.Info("Acquire: tenant=%d, session=%s, slot=%d, service=%d, capacity=%d",
		req.TenantID, req.SessionID, req.SlotID, req.ServiceID, req.RequestedCapacity)

	if err := validateAcquire(req); err != nil {
		s.logger.Warn("Acquire: validation failed: %v", err)
		s.metrics.IncLockAcquisition("invalid")
		return nil, err
	}

	now := s.timeProvider.Now()
	var result *AcquireResult

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		tenant, err := s.loadTenant(txCtx, req.TenantID)
		if err != nil {
			return err
		}

		var slot *domain.Slot
		if req.SlotID > 0 {
			slot, err = s.lockSlot(txCtx, tenant.ID, req.SlotID)
			if err != nil {
				return err
			}
			if err := s.checkDirectChoice(txCtx, tenant, slot); err != nil {
				return err
			}
			if err := s.checkSlot(txCtx, tenant, slot, req.SessionID, req.RequestedCapacity, now); err != nil {
				return err
			}
		} else {
			slot, err = s.resolveByTime(txCtx, tenant, req, now)
			if err != nil {
				return err
			}
		}

		replaced, err := s.lockRepo.DeleteBySlotAndSession(txCtx, tenant.ID, slot.ID, req.SessionID)
		if err != nil {
			return fmt.Errorf("%w: delete previous locks: %w", ErrInternal, err)
		}
		if replaced > 0 {
			s.logger.Info("Acquire: replaced %d previous lock(s) of session=%s on slot=%d", replaced, req.SessionID, slot.ID)
		}

		lock := &domain.ReservationLock{
			ID:               uuid.NewString(),
			TenantID:         tenant.ID,
			SlotID:           slot.ID,
			SessionID:        req.SessionID,
			ReservedCapacity: req.RequestedCapacity,
			ExpiresAt:        now.Add(s.ttl),
			CreatedAt:        now,
		}
		if err := s.lockRepo.Create(txCtx, lock); err != nil {
			return fmt.Errorf("%w: create lock: %w", ErrInternal, err)
		}

		result = &AcquireResult{Lock: lock, Slot: slot}
		return nil
	})

	if err != nil {
		s.metrics.IncLockAcquisition(outcome(err))
		s.logger.Warn("Acquire: failed for session=%s: %v", req.SessionID, err)
		return nil, err
	}

	s.metrics.IncLockAcquisition("ok")
	s.logger.Info("Acquire: lock=%s on slot=%d expires at %s",
		result.Lock.ID, result.Slot.ID, result.Lock.ExpiresAt.Format(time.RFC3339))

	return result, nil
}

// Release явно снимает блокировку сессии
func (s *Service) Release(ctx context.Context, tenantID int64, sessionID, lockID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if lockID == "" {
		return fmt.Errorf("%w: lockID is required", ErrInvalidInput)
	}

	return s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		lock, err := s.lockRepo.GetByID(txCtx, tenantID, lockID)
		if err != nil {
			if errors.Is(err, lockRepo.ErrLockNotFound) {
				return ErrLockNotFound
			}
			return fmt.Errorf("%w: get lock: %w", ErrInternal, err)
		}

		if !lock.BelongsTo(sessionID) {
			s.logger.Warn("Release: lock=%s belongs to another session", lockID)
			return ErrLockMismatch
		}

		if err := s.lockRepo.Delete(txCtx, tenantID, lockID); err != nil {
			return fmt.Errorf("%w: delete lock: %w", ErrInternal, err)
		}

		s.logger.Info("Release: lock=%s released by session=%s", lockID, sessionID)
		return nil
	})
}

// Consume проверяет блокировку при фиксации бронирования и удаляет ее
// Должен вызываться внутри транзакции фиксации
func (s *Service) Consume(ctx context.Context, tenantID int64, lockID, sessionID string, slotID int64, now time.Time) (*domain.ReservationLock, error) {
	lock, err := s.lockRepo.GetByID(ctx, tenantID, lockID)
	if err != nil {
		if errors.Is(err, lockRepo.ErrLockNotFound) {
			return nil, ErrLockGone
		}
		return nil, fmt.Errorf("%w: get lock: %w", ErrInternal, err)
	}

	if !lock.IsActive(now) {
		return nil, ErrLockExpired
	}

	if !lock.BelongsTo(sessionID) || lock.SlotID != slotID {
		return nil, ErrLockMismatch
	}

	if err := s.lockRepo.Delete(ctx, tenantID, lockID); err != nil {
		return nil, fmt.Errorf("%w: delete lock: %w", ErrInternal, err)
	}

	return lock, nil
}

// DropSessionLocks удаляет оставшиеся блокировки сессии на слот
// Вызывается при фиксации, чтобы емкость не считалась дважды: в бронировании и в блокировке
func (s *Service) DropSessionLocks(ctx context.Context, tenantID, slotID int64, sessionID string) (int, error) {
	removed, err := s.lockRepo.DeleteBySlotAndSession(ctx, tenantID, slotID, sessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete session locks: %w", ErrInternal, err)
	}
	return removed, nil
}

// Available вычисляет свободную емкость слота для сессии:
// capacity_total - capacity_booked - активные блокировки других сессий
func (s *Service) Available(ctx context.Context, slot *domain.Slot, sessionID string, now time.Time) (int, error) {
	active, err := s.lockRepo.ListActiveBySlots(ctx, slot.TenantID, []int64{slot.ID}, now)
	if err != nil {
		return 0, fmt.Errorf("%w: list locks: %w", ErrInternal, err)
	}
	return slot.AvailableCapacity(domain.SumActiveLocks(active, now, sessionID)), nil
}

// Sweep удаляет истекшие блокировки
// Читатели фильтруют истекшие блокировки сами, очистка только освобождает место
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.lockRepo.DeleteExpired(ctx, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("Sweep: failed to delete expired locks: %v", err)
		return 0, fmt.Errorf("%w: delete expired: %w", ErrInternal, err)
	}

	s.metrics.AddLocksSwept(removed)
	if removed > 0 {
		s.logger.Info("Sweep: removed %d expired lock(s)", removed)
	}
	return removed, nil
}

func (s *Service) loadTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error) {
	tenant, err := s.catalogRepo.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: get tenant: %w", ErrInternal, err)
	}
	if !tenant.IsActive {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

// lockSlot читает слот; внутри транзакции строка блокируется
func (s *Service) lockSlot(ctx context.Context, tenantID, slotID int64) (*domain.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, tenantID, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: get slot: %w", ErrInternal, err)
	}
	if !slot.IsActive {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// checkDirectChoice запрещает прямой выбор слота сотрудника, если услуга назначает только ротацией
func (s *Service) checkDirectChoice(ctx context.Context, tenant *domain.Tenant, slot *domain.Slot) error {
	if slot.EmployeeID == nil {
		return nil
	}

	service, err := s.catalogRepo.GetService(ctx, tenant.ID, slot.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("%w: get service: %w", ErrInternal, err)
	}
	if !service.AssignmentMode.AllowsManual() {
		return ErrAutomaticAssignment
	}
	return nil
}

// checkSlot проверяет, что слот не начался, емкости хватает и сотрудник слота свободен
func (s *Service) checkSlot(ctx context.Context, tenant *domain.Tenant, slot *domain.Slot, sessionID string, requested int, now time.Time) error {
	if slot.HasStarted(now.In(tenant.Location())) {
		return ErrSlotInPast
	}

	available, err := s.Available(ctx, slot, sessionID, now)
	if err != nil {
		return err
	}
	if requested > available {
		return fmt.Errorf("%w: slot=%d requested=%d available=%d", ErrCapacityExceeded, slot.ID, requested, available)
	}

	if slot.EmployeeID != nil {
		if err := s.assigner.CheckAvailable(ctx, tenant.ID, *slot.EmployeeID, slot.Date, slot.Interval(),
			assignment.Exclude{SlotID: slot.ID}); err != nil {
			return err
		}
	}

	return nil
}

// resolveByTime подбирает слот услуги по времени начала
func (s *Service) resolveByTime(ctx context.Context, tenant *domain.Tenant, req *AcquireRequest, now time.Time) (*domain.Slot, error) {
	service, err := s.catalogRepo.GetService(ctx, tenant.ID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("%w: get service: %w", ErrInternal, err)
	}
	if !service.IsActive {
		return nil, ErrServiceNotFound
	}

	slots, err := s.slotCatalog.EnsureSlots(ctx, tenant, service, req.Date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSlot) {
			return nil, ErrNoSlotAtTime
		}
		return nil, err
	}

	candidates := make([]*domain.Slot, 0)
	for _, slot := range slots {
		if slot.StartTime != req.StartTime {
			continue
		}
		if req.EmployeeID != nil && (slot.EmployeeID == nil || *slot.EmployeeID != *req.EmployeeID) {
			continue
		}
		candidates = append(candidates, slot)
	}
	if len(candidates) == 0 {
		return nil, ErrNoSlotAtTime
	}

	// Проверка кандидата под блокировкой строки; недоступный кандидат пропускается
	var picked *domain.Slot
	eligible := func(candidate *domain.Slot) (bool, error) {
		locked, err := s.lockSlot(ctx, tenant.ID, candidate.ID)
		if err != nil {
			return false, err
		}
		err = s.checkSlot(ctx, tenant, locked, req.SessionID, req.RequestedCapacity, now)
		if isUnavailable(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		picked = locked
		return true, nil
	}

	employeeBased := domain.EffectiveSchedulingType(tenant, service) == domain.SchedulingEmployeeBased

	switch {
	case employeeBased && req.EmployeeID != nil:
		slot := candidates[0]
		if err := s.assigner.ValidateManual(ctx, service, *req.EmployeeID, slot); err != nil {
			return nil, err
		}
		locked, err := s.lockSlot(ctx, tenant.ID, slot.ID)
		if err != nil {
			return nil, err
		}
		if err := s.checkSlot(ctx, tenant, locked, req.SessionID, req.RequestedCapacity, now); err != nil {
			return nil, err
		}
		return locked, nil

	case employeeBased:
		if !service.AssignmentMode.AllowsAutomatic() {
			return nil, fmt.Errorf("%w: service requires choosing an employee", ErrInvalidInput)
		}
		if _, err := s.assigner.PickAutomatic(ctx, tenant.ID, service.ID, candidates, eligible); err != nil {
			return nil, err
		}
		return picked, nil

	default:
		for _, candidate := range candidates {
			ok, err := eligible(candidate)
			if err != nil {
				return nil, err
			}
			if ok {
				return picked, nil
			}
		}
		return nil, fmt.Errorf("%w: no slot at %s has %d free place(s)", ErrCapacityExceeded, req.StartTime, req.RequestedCapacity)
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrCapacityExceeded) ||
		errors.Is(err, domain.ErrEmployeeUnavailable) ||
		errors.Is(err, ErrSlotInPast)
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
	case errors.Is(err, domain.ErrTransient):
		return "conflict"
	default:
		return "error"
	}
}
