package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// 2026-03-02 - понедельник
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) (*memory.Store, *Service) {
	t.Helper()
	store := memory.NewStore()
	return store, NewService(store.Slots(), store.Schedules(), store.Catalog(), logger.Nop())
}

func TestGenerateWindows(t *testing.T) {
	windows := generateWindows(types.MustTimeString("09:00"), types.MustTimeString("11:30"), 60)
	require.Len(t, windows, 2)
	assert.Equal(t, types.TimeString("09:00"), windows[0].Start)
	assert.Equal(t, types.TimeString("10:00"), windows[0].End)
	assert.Equal(t, types.TimeString("11:00"), windows[1].End)

	assert.Empty(t, generateWindows(types.MustTimeString("09:00"), types.MustTimeString("10:00"), 0))
}

func TestEnsureServiceSlots(t *testing.T) {
	store, svc := newFixture(t)
	tenant := &domain.Tenant{ID: store.AddTenant(domain.Tenant{Name: "pool"})}
	service := &domain.Service{ID: 20, TenantID: tenant.ID, SchedulingType: domain.SchedulingServiceBased, DurationMinutes: 30, DefaultCapacity: 8}
	store.AddService(*service)
	store.AddShift(domain.Shift{TenantID: tenant.ID, ServiceID: service.ID, Weekdays: domain.Weekdays{1, 3},
		StartTime: types.MustTimeString("10:00"), EndTime: types.MustTimeString("11:00"), IsActive: true})

	slots, err := svc.EnsureSlots(context.Background(), tenant, service, monday)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 8, slots[0].CapacityTotal)
	assert.Nil(t, slots[0].EmployeeID)

	_, err = svc.EnsureSlots(context.Background(), tenant, service, monday.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrNoActiveTemplate)
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)
}

func TestEnsureEmployeeSlots_Idempotent(t *testing.T) {
	store, svc := newFixture(t)
	tenant := &domain.Tenant{ID: store.AddTenant(domain.Tenant{Name: "salon"})}
	service := &domain.Service{ID: 30, TenantID: tenant.ID, SchedulingType: domain.SchedulingEmployeeBased, DurationMinutes: 60}
	store.AddService(*service)

	for _, name := range []string{"anna", "boris"} {
		id := store.AddEmployee(domain.Employee{TenantID: tenant.ID, Name: name, IsActive: true})
		store.AssignEmployee(id, service.ID)
		store.AddEmployeeShift(domain.EmployeeShift{TenantID: tenant.ID, EmployeeID: id, Weekdays: domain.Weekdays{1},
			StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("12:00"), IsActive: true})
	}
	// Не назначен на услугу - слотов быть не должно
	outsider := store.AddEmployee(domain.Employee{TenantID: tenant.ID, Name: "carl", IsActive: true})
	store.AddEmployeeShift(domain.EmployeeShift{TenantID: tenant.ID, EmployeeID: outsider, Weekdays: domain.Weekdays{1},
		StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("12:00"), IsActive: true})

	first, err := svc.EnsureSlots(context.Background(), tenant, service, monday)
	require.NoError(t, err)
	require.Len(t, first, 6)
	for _, s := range first {
		require.NotNil(t, s.EmployeeID)
		assert.NotEqual(t, outsider, *s.EmployeeID)
		assert.Equal(t, domain.DefaultEmployeeCapacity, s.CapacityTotal)
	}

	second, err := svc.EnsureSlots(context.Background(), tenant, service, monday)
	require.NoError(t, err)
	assert.Len(t, second, 6)
	assert.Equal(t, 6, store.SlotCount())
}

func TestEnsureSlots_TenantOverride(t *testing.T) {
	store, svc := newFixture(t)
	override := domain.SchedulingEmployeeBased
	tenant := &domain.Tenant{ID: store.AddTenant(domain.Tenant{Name: "clinic"}), SchedulingOverride: &override}
	service := &domain.Service{ID: 40, TenantID: tenant.ID, SchedulingType: domain.SchedulingServiceBased, DurationMinutes: 60}
	store.AddService(*service)
	store.AddShift(domain.Shift{TenantID: tenant.ID, ServiceID: service.ID, Weekdays: domain.Weekdays{1},
		StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("10:00"), IsActive: true})

	// Смены услуги есть, но тенант переводит все услуги в режим сотрудников
	_, err := svc.EnsureSlots(context.Background(), tenant, service, monday)
	assert.ErrorIs(t, err, ErrNoActiveTemplate)
}
