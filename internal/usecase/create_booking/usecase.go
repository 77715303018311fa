package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
)

// UseCase use case фиксации бронирования - единственный путь записи бронирований
type UseCase struct {
	catalogRepo  CatalogRepository
	slotRepo     SlotRepository
	bookingRepo  BookingRepository
	locks        LockManager
	assigner     EmployeeAssigner
	packages     PackageLedger
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
	packages PackageLedger,
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
		packages:     packages,
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

// pendingBooking позиция, прошедшая проверки и занявшая емкость, но еще не записанная
type pendingBooking struct {
	booking     *domain.Booking
	allocations []domain.PackageAllocation
}

// commitState состояние одной фиксации, накапливаемое внутри транзакции
type commitState struct {
	tenant   *domain.Tenant
	service  *domain.Service
	now      time.Time
	pending  []*pendingBooking
	bookings []*domain.Booking
	events   []domain.Event
	consumed *packages.ConsumeResult
}

// Execute выполняет use case создания бронирования
// Все предусловия перепроверяются в одной сериализуемой транзакции:
// ранее показанная доступность не считается доверенной
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: tenant=%d, service=%d, customer=%d, session=%s, items=%d",
		req.TenantID, req.ServiceID, req.CustomerID, req.SessionID, len(req.Items))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		uc.metrics.IncBookingCommit("create", "invalid")
		return nil, err
	}

	// 2. Позиции обрабатываются по возрастанию slot_id: одинаковый порядок блокировок
	// для параллельных пакетных запросов
	items := make([]Item, len(req.Items))
	copy(items, req.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SlotID < items[j].SlotID })

	var st *commitState

	// 3. Фиксация в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		st = &commitState{now: uc.timeProvider.Now()}

		// 3.1. Тенант и услуга
		tenant, service, err := uc.loadCatalog(txCtx, req.TenantID, req.ServiceID)
		if err != nil {
			return err
		}
		st.tenant = tenant
		st.service = service

		// 3.2. Каждая позиция: проверки и занятие емкости
		for _, item := range items {
			if err := uc.prepareItem(txCtx, st, req, item); err != nil {
				return err
			}
		}

		// 3.3. Пакет списывается один раз на весь заказ: покрыт весь заказ или ничего
		if req.UsePackage {
			if err := uc.applyPackage(txCtx, st, req); err != nil {
				return err
			}
		}

		// 3.4. Запись бронирований
		for _, p := range st.pending {
			if err := uc.persist(txCtx, st, p); err != nil {
				return err
			}
		}

		if st.consumed != nil && st.consumed.Exhausted {
			st.events = append(st.events, exhaustedEvent(st.bookings[0], st.consumed, totalVisitors(st.pending), len(st.bookings), st.now))
		}
		return nil
	})

	if err != nil {
		uc.metrics.IncBookingCommit("create", outcome(err))
		uc.logger.Warn("CreateBooking: commit failed for session=%s: %v", req.SessionID, err)
		return nil, err
	}

	uc.metrics.IncBookingCommit("create", "ok")

	// 4. События отправляются только после фиксации
	uc.dispatcher.Dispatch(st.events...)

	resp := &Response{
		Bookings:         make([]*models.BookingResponse, 0, len(st.bookings)),
		PackageExhausted: st.consumed != nil && st.consumed.Exhausted,
	}
	for _, b := range st.bookings {
		resp.Bookings = append(resp.Bookings, models.FromDomainBooking(b))
		resp.TotalPrice += b.Price
	}

	uc.logger.Info("CreateBooking: committed %d booking(s) for customer=%d, total=%.2f",
		len(st.bookings), req.CustomerID, resp.TotalPrice)

	return resp, nil
}

func (uc *UseCase) loadCatalog(ctx context.Context, tenantID, serviceID int64) (*domain.Tenant, *domain.Service, error) {
	tenant, err := uc.catalogRepo.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrTenantNotFound) {
			return nil, nil, ErrTenantNotFound
		}
		return nil, nil, fmt.Errorf("%w: get tenant: %w", ErrInternal, err)
	}
	if !tenant.IsActive {
		return nil, nil, ErrTenantNotFound
	}

	service, err := uc.catalogRepo.GetService(ctx, tenantID, serviceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			return nil, nil, ErrServiceNotFound
		}
		return nil, nil, fmt.Errorf("%w: get service: %w", ErrInternal, err)
	}
	if !service.IsActive {
		return nil, nil, ErrServiceNotFound
	}

	return tenant, service, nil
}

// prepareItem проверяет позицию и занимает емкость слота
func (uc *UseCase) prepareItem(ctx context.Context, st *commitState, req *Request, item Item) error {
	// Слот блокируется первым: точка сериализации емкости
	slot, err := uc.slotRepo.GetByID(ctx, st.tenant.ID, item.SlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("%w: get slot: %w", ErrInternal, err)
	}
	if !slot.IsActive {
		return ErrSlotNotFound
	}
	if slot.ServiceID != st.service.ID {
		return ErrSlotServiceMismatch
	}
	if slot.HasStarted(st.now.In(st.tenant.Location())) {
		return ErrSlotInPast
	}

	// Блокировка: существует, не истекла, принадлежит сессии и слоту; удаляется
	if item.LockID != nil {
		if _, err := uc.locks.Consume(ctx, st.tenant.ID, *item.LockID, req.SessionID, slot.ID, st.now); err != nil {
			return err
		}
	}

	// Емкость на момент фиксации, блокировки своей сессии не учитываются
	available, err := uc.locks.Available(ctx, slot, req.SessionID, st.now)
	if err != nil {
		return err
	}
	if item.VisitorCount > available {
		return fmt.Errorf("%w: slot=%d requested=%d available=%d", ErrCapacityExceeded, slot.ID, item.VisitorCount, available)
	}

	// Прочие блокировки сессии на слот больше не держат емкость
	if _, err := uc.locks.DropSessionLocks(ctx, st.tenant.ID, slot.ID, req.SessionID); err != nil {
		return err
	}

	automatic, err := uc.checkEmployee(ctx, st, slot, item)
	if err != nil {
		return err
	}

	if err := uc.slotRepo.AdjustBooked(ctx, st.tenant.ID, slot.ID, item.VisitorCount); err != nil {
		if errors.Is(err, slotRepo.ErrCapacityConflict) {
			return fmt.Errorf("%w: slot=%d", ErrCapacityExceeded, slot.ID)
		}
		return fmt.Errorf("%w: increment capacity: %w", ErrInternal, err)
	}

	if automatic {
		if err := uc.assigner.Advance(ctx, st.tenant.ID, st.service.ID, *slot.EmployeeID); err != nil {
			return err
		}
	}

	st.pending = append(st.pending, &pendingBooking{booking: &domain.Booking{
		TenantID:     st.tenant.ID,
		SlotID:       slot.ID,
		ServiceID:    st.service.ID,
		EmployeeID:   slot.EmployeeID,
		CustomerID:   req.CustomerID,
		SessionID:    req.SessionID,
		VisitorCount: item.VisitorCount,
		Price:        st.service.Price * float64(item.VisitorCount),
		BookingDate:  slot.Date,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
	}})

	return nil
}

// applyPackage списывает пакет на суммарное число посетителей заказа
// При нехватке остатка ничего не списывается и все позиции оплачиваются полностью
func (uc *UseCase) applyPackage(ctx context.Context, st *commitState, req *Request) error {
	quantities := make([]int, len(st.pending))
	for i, p := range st.pending {
		quantities[i] = p.booking.VisitorCount
	}

	consumed, err := uc.packages.Consume(ctx, packages.ConsumeRequest{
		TenantID:   st.tenant.ID,
		CustomerID: req.CustomerID,
		ServiceID:  st.service.ID,
		Quantity:   totalVisitors(st.pending),
		Now:        st.now,
	})
	if err != nil {
		return err
	}
	st.consumed = consumed

	if !consumed.Covered {
		return nil
	}

	parts := packages.SplitAllocations(consumed.Allocations, quantities)
	for i, p := range st.pending {
		p.allocations = parts[i]
		p.booking.Price = 0
		p.booking.PackageCovered = true
		p.booking.PackageSubscriptionID = packages.PrimarySubscription(parts[i])
	}
	return nil
}

// persist записывает бронирование с входным токеном и привязывает списание пакета
func (uc *UseCase) persist(ctx context.Context, st *commitState, p *pendingBooking) error {
	p.booking.Status = domain.InitialStatus(st.tenant, p.booking.Price)
	p.booking.EntryToken = ptr.Ptr(uuid.NewString())

	created, err := uc.bookingRepo.Create(ctx, p.booking)
	if err != nil {
		return fmt.Errorf("%w: create booking: %w", ErrInternal, err)
	}

	if err := uc.packages.RecordAllocations(ctx, created.ID, p.allocations); err != nil {
		return err
	}

	st.bookings = append(st.bookings, created)
	st.events = append(st.events, createdEvent(created, st.now))
	return nil
}

// checkEmployee проверяет сотрудника слота и его глобальную занятость
// Возвращает true, если назначение автоматическое и указатель ротации нужно сдвинуть
func (uc *UseCase) checkEmployee(ctx context.Context, st *commitState, slot *domain.Slot, item Item) (bool, error) {
	if slot.EmployeeID == nil {
		if item.EmployeeID != nil {
			return false, fmt.Errorf("%w: slot=%d is not tied to an employee", ErrInvalidInput, slot.ID)
		}
		return false, nil
	}

	automatic := false
	if item.EmployeeID != nil {
		if err := uc.assigner.ValidateManual(ctx, st.service, *item.EmployeeID, slot); err != nil {
			return false, err
		}
	} else {
		// Только ротация: слот должен быть выдан блокировкой, захваченной по времени
		if !st.service.AssignmentMode.AllowsManual() && item.LockID == nil {
			return false, ErrAutomaticNeedsLock
		}
		if err := uc.assigner.ValidateAssigned(ctx, st.service, *slot.EmployeeID); err != nil {
			return false, err
		}
		automatic = st.service.AssignmentMode.AllowsAutomatic()
	}

	// Бронирования этого же слота - это емкость, а не занятость сотрудника
	if err := uc.assigner.CheckAvailable(ctx, st.tenant.ID, *slot.EmployeeID, slot.Date, slot.Interval(),
		assignment.Exclude{SlotID: slot.ID}); err != nil {
		return false, err
	}

	// Позиции этого же заказа еще не записаны в бронирования
	for _, p := range st.pending {
		b := p.booking
		if b.EmployeeID == nil || *b.EmployeeID != *slot.EmployeeID || b.SlotID == slot.ID {
			continue
		}
		if b.BookingDate.Equal(slot.Date) && b.Interval().Overlaps(slot.Interval()) {
			return false, fmt.Errorf("%w: employee=%d at %s", ErrEmployeeOverlap, *slot.EmployeeID, slot.StartTime)
		}
	}

	return automatic, nil
}

func totalVisitors(pending []*pendingBooking) int {
	total := 0
	for _, p := range pending {
		total += p.booking.VisitorCount
	}
	return total
}

func createdEvent(b *domain.Booking, now time.Time) domain.Event {
	payload := map[string]string{
		"slotId":       strconv.FormatInt(b.SlotID, 10),
		"date":         b.BookingDate.Format(domain.DateFormat),
		"startTime":    b.StartTime.String(),
		"visitorCount": strconv.Itoa(b.VisitorCount),
		"status":       string(b.Status),
	}
	if b.EntryToken != nil {
		payload["entryToken"] = *b.EntryToken
	}
	return domain.Event{
		Type:       domain.EventBookingCreated,
		TenantID:   b.TenantID,
		BookingID:  ptr.Ptr(b.ID),
		CustomerID: b.CustomerID,
		ServiceID:  b.ServiceID,
		Payload:    payload,
		OccurredAt: now,
	}
}

func exhaustedEvent(first *domain.Booking, consumed *packages.ConsumeResult, requested, bookings int, now time.Time) domain.Event {
	return domain.Event{
		Type:       domain.EventPackageExhausted,
		TenantID:   first.TenantID,
		BookingID:  ptr.Ptr(first.ID),
		CustomerID: first.CustomerID,
		ServiceID:  first.ServiceID,
		Payload: map[string]string{
			"requested": strconv.Itoa(requested),
			"remaining": strconv.Itoa(consumed.Remaining),
			"bookings":  strconv.Itoa(bookings),
		},
		OccurredAt: now,
	}
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
