package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func window(start, end string) domain.Interval {
	return domain.Interval{Start: types.MustTimeString(start), End: types.MustTimeString(end)}
}

func TestRotationOrder(t *testing.T) {
	ids := []int64{30, 10, 20}

	assert.Equal(t, []int64{10, 20, 30}, RotationOrder(ids, nil))
	assert.Equal(t, []int64{20, 30, 10}, RotationOrder(ids, ptr.Ptr(int64(10))))
	assert.Equal(t, []int64{10, 20, 30}, RotationOrder(ids, ptr.Ptr(int64(30))))
	// Указатель на уволенного сотрудника: продолжаем со следующего по порядку
	assert.Equal(t, []int64{20, 30, 10}, RotationOrder(ids, ptr.Ptr(int64(15))))
}

func TestNextEmployee_SkipsBusy(t *testing.T) {
	busy := map[int64]bool{20: true}
	id, ok := NextEmployee([]int64{10, 20, 30}, ptr.Ptr(int64(10)), func(e int64) bool { return busy[e] })
	require.True(t, ok)
	assert.Equal(t, int64(30), id)

	_, ok = NextEmployee([]int64{20}, nil, func(e int64) bool { return busy[e] })
	assert.False(t, ok)
}

func TestBusyMap_IsBusy(t *testing.T) {
	busy := NewBusyMap([]*domain.Booking{
		{ID: 1, SlotID: 100, EmployeeID: ptr.Ptr(int64(7)), Status: domain.StatusConfirmed,
			StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("10:00")},
		{ID: 2, SlotID: 101, EmployeeID: ptr.Ptr(int64(7)), Status: domain.StatusCancelled,
			StartTime: types.MustTimeString("11:00"), EndTime: types.MustTimeString("12:00")},
	})

	assert.True(t, busy.IsBusy(7, window("09:30", "10:30"), Exclude{}))
	// Полуоткрытые интервалы: стык не является пересечением
	assert.False(t, busy.IsBusy(7, window("10:00", "11:00"), Exclude{}))
	assert.False(t, busy.IsBusy(7, window("11:00", "12:00"), Exclude{}))
	assert.False(t, busy.IsBusy(7, window("09:00", "10:00"), Exclude{SlotID: 100}))
	assert.False(t, busy.IsBusy(7, window("09:00", "10:00"), Exclude{BookingID: 1}))
	assert.False(t, busy.IsBusy(8, window("09:00", "10:00"), Exclude{}))
}

func TestCheckAvailable_AcrossServices(t *testing.T) {
	store := memory.NewStore()
	tenantID := store.AddTenant(domain.Tenant{Name: "salon"})
	employeeID := store.AddEmployee(domain.Employee{TenantID: tenantID, Name: "anna", IsActive: true})

	_, err := store.Bookings().Create(context.Background(), &domain.Booking{
		TenantID: tenantID, SlotID: 500, ServiceID: 1, EmployeeID: ptr.Ptr(employeeID),
		Status: domain.StatusConfirmed, BookingDate: day,
		StartTime: types.MustTimeString("09:00"), EndTime: types.MustTimeString("10:00"),
	})
	require.NoError(t, err)

	svc := NewService(store.Bookings(), store.Catalog(), store.Rotation(), logger.Nop())

	err = svc.CheckAvailable(context.Background(), tenantID, employeeID, day, window("09:00", "10:00"), Exclude{SlotID: 900})
	assert.ErrorIs(t, err, ErrEmployeeBusy)
	assert.ErrorIs(t, err, domain.ErrEmployeeUnavailable)

	assert.NoError(t, svc.CheckAvailable(context.Background(), tenantID, employeeID, day, window("10:00", "11:00"), Exclude{}))

	err = svc.CheckAvailable(context.Background(), tenantID, 9999, day, window("10:00", "11:00"), Exclude{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestValidateManual(t *testing.T) {
	store := memory.NewStore()
	tenantID := store.AddTenant(domain.Tenant{Name: "salon"})
	service := &domain.Service{ID: 50, TenantID: tenantID, AssignmentMode: domain.AssignmentManual}
	anna := store.AddEmployee(domain.Employee{TenantID: tenantID, Name: "anna", IsActive: true})
	boris := store.AddEmployee(domain.Employee{TenantID: tenantID, Name: "boris", IsActive: true})
	store.AssignEmployee(anna, service.ID)

	svc := NewService(store.Bookings(), store.Catalog(), store.Rotation(), logger.Nop())

	assert.NoError(t, svc.ValidateManual(context.Background(), service, anna, &domain.Slot{EmployeeID: ptr.Ptr(anna)}))
	assert.ErrorIs(t, svc.ValidateManual(context.Background(), service, anna, &domain.Slot{EmployeeID: ptr.Ptr(boris)}), ErrSlotEmployeeMismatch)
	assert.ErrorIs(t, svc.ValidateManual(context.Background(), service, boris, &domain.Slot{EmployeeID: ptr.Ptr(boris)}), ErrNotAssigned)

	automatic := *service
	automatic.AssignmentMode = domain.AssignmentAutomatic
	assert.ErrorIs(t, svc.ValidateManual(context.Background(), &automatic, anna, &domain.Slot{EmployeeID: ptr.Ptr(anna)}), ErrManualNotAllowed)
}

func TestPickAutomatic_RoundRobin(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Bookings(), store.Catalog(), store.Rotation(), logger.Nop())

	candidates := []*domain.Slot{
		{ID: 1, EmployeeID: ptr.Ptr(int64(10))},
		{ID: 2, EmployeeID: ptr.Ptr(int64(20))},
		{ID: 3, EmployeeID: ptr.Ptr(int64(30))},
	}
	all := func(*domain.Slot) (bool, error) { return true, nil }

	picked := make([]int64, 0, 4)
	for i := 0; i < 4; i++ {
		err := store.DoSerializable(context.Background(), func(txCtx context.Context) error {
			slot, err := svc.PickAutomatic(txCtx, 1, 5, candidates, all)
			if err != nil {
				return err
			}
			picked = append(picked, *slot.EmployeeID)
			return svc.Advance(txCtx, 1, 5, *slot.EmployeeID)
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{10, 20, 30, 10}, picked)

	none := func(*domain.Slot) (bool, error) { return false, nil }
	_, err := svc.PickAutomatic(context.Background(), 1, 5, candidates, none)
	assert.ErrorIs(t, err, ErrNoEligibleEmployee)
}
