// Package testenv собирает сервисы движка поверх in-memory хранилища для тестов usecase и handlers
package testenv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/catalog"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// Day понедельник, на который строятся слоты в тестах
var Day = time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)

// AllWeek все дни недели
var AllWeek = domain.Weekdays{0, 1, 2, 3, 4, 5, 6}

// Clock управляемое время
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now текущее время часов
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы вперед
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Dispatcher запоминает отправленные события
type Dispatcher struct {
	mu     sync.Mutex
	events []domain.Event
}

// Dispatch сохраняет события
func (d *Dispatcher) Dispatch(events ...domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

// Events копия отправленных событий
func (d *Dispatcher) Events() []domain.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Event, len(d.events))
	copy(out, d.events)
	return out
}

// OfType события заданного типа
func (d *Dispatcher) OfType(t domain.EventType) []domain.Event {
	out := make([]domain.Event, 0)
	for _, ev := range d.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Env сервисы движка над одним in-memory хранилищем
type Env struct {
	Store      *memory.Store
	Clock      *Clock
	Dispatcher *Dispatcher
	Metrics    *metrics.Metrics
	Log        *logger.Logger

	Catalog  *catalog.Service
	Assigner *assignment.Service
	Locks    *locks.Service
	Packages *packages.Service

	Tenant *domain.Tenant
}

// New создает окружение с одним активным тенантом в UTC; часы стоят на 08:00 дня Day
func New(t *testing.T) *Env {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()
	clock := &Clock{now: Day.Add(8 * time.Hour)}

	e := &Env{
		Store:      store,
		Clock:      clock,
		Dispatcher: &Dispatcher{},
		Log:        log,
	}

	e.Catalog = catalog.NewService(store.Slots(), store.Schedules(), store.Catalog(), log)
	e.Assigner = assignment.NewService(store.Bookings(), store.Catalog(), store.Rotation(), log)
	e.Packages = packages.NewService(store.Packages(), log)
	e.Locks = locks.NewService(store.Catalog(), store.Slots(), store.Locks(), e.Catalog, e.Assigner,
		store, e.Metrics, log, domain.DefaultLockTTL).WithTimeProvider(clock)

	tenant := domain.Tenant{Name: "wellness", Timezone: "UTC", IsActive: true}
	tenant.ID = store.AddTenant(tenant)
	e.Tenant = &tenant

	return e
}

// ServiceBased добавляет услугу со сменой 09:00-12:00 и возвращает ее
func (e *Env) ServiceBased(t *testing.T, capacity int, price float64) *domain.Service {
	t.Helper()
	svc := domain.Service{
		TenantID: e.Tenant.ID, Name: "pool", SchedulingType: domain.SchedulingServiceBased,
		AssignmentMode: domain.AssignmentManual, DurationMinutes: 60, DefaultCapacity: capacity,
		Price: price, IsActive: true,
	}
	svc.ID = e.Store.AddService(svc)
	e.Store.AddShift(domain.Shift{
		TenantID: e.Tenant.ID, ServiceID: svc.ID, Weekdays: AllWeek,
		StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("12:00"), IsActive: true,
	})
	return &svc
}

// EmployeeBased добавляет услугу с записью к сотрудникам
func (e *Env) EmployeeBased(t *testing.T, mode domain.AssignmentMode, price float64) *domain.Service {
	t.Helper()
	svc := domain.Service{
		TenantID: e.Tenant.ID, Name: "massage", SchedulingType: domain.SchedulingEmployeeBased,
		AssignmentMode: mode, DurationMinutes: 60, DefaultCapacity: 1, Price: price, IsActive: true,
	}
	svc.ID = e.Store.AddService(svc)
	return &svc
}

// Employee добавляет сотрудника со сменой 09:00-12:00 и назначает его на услуги
func (e *Env) Employee(t *testing.T, name string, services ...*domain.Service) int64 {
	t.Helper()
	id := e.Store.AddEmployee(domain.Employee{TenantID: e.Tenant.ID, Name: name, IsActive: true})
	e.Store.AddEmployeeShift(domain.EmployeeShift{
		TenantID: e.Tenant.ID, EmployeeID: id, Weekdays: AllWeek,
		StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("12:00"), IsActive: true,
	})
	for _, svc := range services {
		e.Store.AssignEmployee(id, svc.ID)
	}
	return id
}

// Slots материализует слоты услуги на Day
func (e *Env) Slots(t *testing.T, svc *domain.Service) []*domain.Slot {
	t.Helper()
	slots, err := e.Catalog.EnsureSlots(context.Background(), e.Tenant, svc, Day)
	require.NoError(t, err)
	return slots
}

// SlotAt слот услуги на время start (и сотрудника, если employeeID != 0)
func (e *Env) SlotAt(t *testing.T, svc *domain.Service, start string, employeeID int64) *domain.Slot {
	t.Helper()
	for _, slot := range e.Slots(t, svc) {
		if slot.StartTime != types.MustTimeString(start) {
			continue
		}
		if employeeID != 0 && (slot.EmployeeID == nil || *slot.EmployeeID != employeeID) {
			continue
		}
		return slot
	}
	t.Fatalf("no slot at %s for employee %d", start, employeeID)
	return nil
}

// Slot текущее состояние слота
func (e *Env) Slot(t *testing.T, id int64) *domain.Slot {
	t.Helper()
	slot, err := e.Store.Slots().GetByID(context.Background(), e.Tenant.ID, id)
	require.NoError(t, err)
	return slot
}

// Lock захватывает емкость слота для сессии
func (e *Env) Lock(t *testing.T, slotID int64, session string, capacity int) *domain.ReservationLock {
	t.Helper()
	res, err := e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: session, SlotID: slotID, RequestedCapacity: capacity,
	})
	require.NoError(t, err)
	return res.Lock
}
