package locks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
	"github.com/m04kA/SMC-ReservationEngine/internal/testenv"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

func acquire(e *testenv.Env, slotID int64, session string, capacity int) (*locks.AcquireResult, error) {
	return e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: session, SlotID: slotID, RequestedCapacity: capacity,
	})
}

func TestAcquire_CapacityAgainstOtherSessions(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 3, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)

	res, err := acquire(e, slot.ID, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, e.Clock.Now().Add(domain.DefaultLockTTL), res.Lock.ExpiresAt)

	_, err = acquire(e, slot.ID, "b", 2)
	assert.ErrorIs(t, err, locks.ErrCapacityExceeded)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	_, err = acquire(e, slot.ID, "b", 1)
	require.NoError(t, err)
}

func TestAcquire_ReplacesOwnLock(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 3, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)

	first, err := acquire(e, slot.ID, "a", 2)
	require.NoError(t, err)

	// Собственная блокировка не уменьшает доступность для своей сессии
	second, err := acquire(e, slot.ID, "a", 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.Lock.ID, second.Lock.ID)
	assert.Equal(t, 1, e.Store.LockCount())
}

func TestAcquire_SlotInPast(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 3, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)
	e.Clock.Advance(time.Hour)

	_, err := acquire(e, slot.ID, "a", 1)
	assert.ErrorIs(t, err, locks.ErrSlotInPast)
}

func TestAcquire_Validation(t *testing.T) {
	e := testenv.New(t)

	_, err := acquire(e, 1, "", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = acquire(e, 1, "a", domain.MaxVisitorsPerBooking+1)
	assert.ErrorIs(t, err, locks.ErrInvalidInput)

	_, err = e.Locks.Acquire(context.Background(), &locks.AcquireRequest{TenantID: e.Tenant.ID, SessionID: "a", RequestedCapacity: 1})
	assert.ErrorIs(t, err, locks.ErrInvalidInput)

	_, err = acquire(e, 777, "a", 1)
	assert.ErrorIs(t, err, locks.ErrSlotNotFound)
}

func TestAcquire_ByTimeServiceBased(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 2, 10)

	res, err := e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "a", ServiceID: svc.ID, Date: testenv.Day,
		StartTime: types.MustTimeString("10:00"), RequestedCapacity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("10:00"), res.Slot.StartTime)

	_, err = e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "a", ServiceID: svc.ID, Date: testenv.Day,
		StartTime: types.MustTimeString("10:30"), RequestedCapacity: 1,
	})
	assert.ErrorIs(t, err, locks.ErrNoSlotAtTime)
}

func TestAcquire_ManualEmployee(t *testing.T) {
	e := testenv.New(t)
	svc := e.EmployeeBased(t, domain.AssignmentManual, 30)
	anna := e.Employee(t, "anna", svc)
	bob := e.Employee(t, "bob", svc)

	res, err := e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "a", ServiceID: svc.ID, Date: testenv.Day,
		StartTime: types.MustTimeString("09:00"), EmployeeID: ptr.Ptr(bob), RequestedCapacity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, bob, *res.Slot.EmployeeID)

	// Ручной режим: без выбора сотрудника слот не подбирается
	_, err = e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "b", ServiceID: svc.ID, Date: testenv.Day,
		StartTime: types.MustTimeString("09:00"), RequestedCapacity: 1,
	})
	assert.ErrorIs(t, err, locks.ErrInvalidInput)

	_, err = e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "b", ServiceID: svc.ID, Date: testenv.Day,
		StartTime: types.MustTimeString("09:00"), EmployeeID: ptr.Ptr(anna), RequestedCapacity: 1,
	})
	require.NoError(t, err)
}

func TestAcquire_EmployeeBusyElsewhere(t *testing.T) {
	e := testenv.New(t)
	x := e.EmployeeBased(t, domain.AssignmentManual, 30)
	y := e.EmployeeBased(t, domain.AssignmentManual, 30)
	emp := e.Employee(t, "emp", x, y)

	booked := e.SlotAt(t, x, "10:00", emp)
	_, err := e.Store.Bookings().Create(context.Background(), &domain.Booking{
		TenantID: e.Tenant.ID, SlotID: booked.ID, ServiceID: x.ID, EmployeeID: ptr.Ptr(emp), CustomerID: 3,
		VisitorCount: 1, Status: domain.StatusPendingPayment, BookingDate: booked.Date,
		StartTime: booked.StartTime, EndTime: booked.EndTime,
	})
	require.NoError(t, err)

	_, err = acquire(e, e.SlotAt(t, y, "10:00", emp).ID, "a", 1)
	assert.ErrorIs(t, err, domain.ErrEmployeeUnavailable)

	_, err = acquire(e, e.SlotAt(t, y, "11:00", emp).ID, "a", 1)
	require.NoError(t, err)
}

func TestRelease(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 1, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)
	res, err := acquire(e, slot.ID, "owner", 1)
	require.NoError(t, err)

	err = e.Locks.Release(context.Background(), e.Tenant.ID, "thief", res.Lock.ID)
	assert.ErrorIs(t, err, locks.ErrLockMismatch)

	require.NoError(t, e.Locks.Release(context.Background(), e.Tenant.ID, "owner", res.Lock.ID))
	assert.Equal(t, 0, e.Store.LockCount())

	err = e.Locks.Release(context.Background(), e.Tenant.ID, "owner", res.Lock.ID)
	assert.ErrorIs(t, err, locks.ErrLockNotFound)

	_, err = acquire(e, slot.ID, "next", 1)
	require.NoError(t, err)
}

func TestExpiryAndSweep(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 1, 10)
	slot := e.SlotAt(t, svc, "11:00", 0)
	_, err := acquire(e, slot.ID, "a", 1)
	require.NoError(t, err)

	_, err = acquire(e, slot.ID, "b", 1)
	assert.ErrorIs(t, err, locks.ErrCapacityExceeded)

	// После истечения TTL блокировка не учитывается еще до очистки
	e.Clock.Advance(e.Locks.TTL() + time.Second)
	_, err = acquire(e, slot.ID, "b", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Store.LockCount())

	removed, err := e.Locks.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, e.Store.LockCount())
}

func TestAcquire_AutomaticOnlyRejectsDirectSlot(t *testing.T) {
	e := testenv.New(t)
	svc := e.EmployeeBased(t, domain.AssignmentAutomatic, 30)
	e.Employee(t, "first", svc)
	second := e.Employee(t, "second", svc)

	_, err := acquire(e, e.SlotAt(t, svc, "10:00", second).ID, "a", 1)
	assert.ErrorIs(t, err, locks.ErrAutomaticAssignment)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, e.Store.LockCount())

	// По времени слот выбирает ротация
	res, err := e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "a", ServiceID: svc.ID, Date: testenv.Day,
		StartTime: types.MustTimeString("10:00"), RequestedCapacity: 1,
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Slot.EmployeeID)
}

func TestDropSessionLocks(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 3, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)
	e.Lock(t, slot.ID, "a", 1)
	e.Lock(t, slot.ID, "b", 1)

	removed, err := e.Locks.DropSessionLocks(context.Background(), e.Tenant.ID, slot.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, e.Store.LockCount())
}
