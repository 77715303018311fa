package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

const customerID = int64(501)

func newUseCase(e *testenv.Env) *UseCase {
	return NewUseCase(
		e.Store.Catalog(),
		e.Store.Slots(),
		e.Store.Bookings(),
		e.Locks,
		e.Assigner,
		e.Packages,
		e.Dispatcher,
		e.Store,
		e.Metrics,
		e.Log,
	).WithTimeProvider(e.Clock)
}

func single(e *testenv.Env, svc *domain.Service, session string, slotID int64, visitors int, lockID *string) *Request {
	return &Request{
		TenantID:   e.Tenant.ID,
		ServiceID:  svc.ID,
		CustomerID: customerID,
		SessionID:  session,
		Items:      []Item{{SlotID: slotID, LockID: lockID, VisitorCount: visitors}},
	}
}

func TestExecute_ConcurrentCommitsNeverOverbook(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 3, 10)
	slot := e.SlotAt(t, svc, "10:00", 0)
	uc := newUseCase(e)

	const attempts = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), single(e, svc, fmt.Sprintf("s-%d", i), slot.ID, 1, nil))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, attempts-3, rejected)
	assert.Equal(t, 3, e.Slot(t, slot.ID).CapacityBooked)
	assert.Len(t, e.Dispatcher.OfType(domain.EventBookingCreated), 3)
}

func TestExecute_LastSeatGoesToExactlyOneSession(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 1, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)
	uc := newUseCase(e)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), single(e, svc, fmt.Sprintf("session-%d", i), slot.ID, 1, nil))
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.ErrorIs(t, err, ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, e.Slot(t, slot.ID).CapacityBooked)
}

func TestExecute_LockRoundTrip(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 5, 20)
	slot := e.SlotAt(t, svc, "11:00", 0)
	uc := newUseCase(e)

	lock := e.Lock(t, slot.ID, "checkout-1", 2)

	// Для другой сессии блокировка уже вычтена из доступной емкости
	available, err := e.Locks.Available(context.Background(), e.Slot(t, slot.ID), "other", e.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, available)

	resp, err := uc.Execute(context.Background(), single(e, svc, "checkout-1", slot.ID, 2, ptr.Ptr(lock.ID)))
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, 40.0, resp.TotalPrice)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Bookings[0].Status)
	assert.NotNil(t, resp.Bookings[0].EntryToken)

	// Блокировка израсходована и не учитывается повторно
	assert.Equal(t, 0, e.Store.LockCount())
	after := e.Slot(t, slot.ID)
	assert.Equal(t, 2, after.CapacityBooked)
	available, err = e.Locks.Available(context.Background(), after, "other", e.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, available)

	// Повторная фиксация с той же блокировкой невозможна
	_, err = uc.Execute(context.Background(), single(e, svc, "checkout-1", slot.ID, 2, ptr.Ptr(lock.ID)))
	assert.ErrorIs(t, err, locks.ErrLockGone)
	assert.ErrorIs(t, err, domain.ErrLockExpired)
}

func TestExecute_ForeignLockHoldsCapacity(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 1, 10)
	slot := e.SlotAt(t, svc, "10:00", 0)
	uc := newUseCase(e)

	lock := e.Lock(t, slot.ID, "holder", 1)

	_, err := uc.Execute(context.Background(), single(e, svc, "intruder", slot.ID, 1, nil))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = uc.Execute(context.Background(), single(e, svc, "intruder", slot.ID, 1, ptr.Ptr(lock.ID)))
	assert.ErrorIs(t, err, domain.ErrLockMismatch)

	_, err = uc.Execute(context.Background(), single(e, svc, "holder", slot.ID, 1, ptr.Ptr(lock.ID)))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Slot(t, slot.ID).CapacityBooked)
}

func TestExecute_ExpiredLockRejectedBeforeSweep(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 1, 10)
	slot := e.SlotAt(t, svc, "11:00", 0)
	uc := newUseCase(e)

	lock := e.Lock(t, slot.ID, "slow", 1)
	e.Clock.Advance(e.Locks.TTL() + time.Second)

	// Истекшая блокировка больше не держит емкость, хотя очистка еще не запускалась
	require.Equal(t, 1, e.Store.LockCount())
	available, err := e.Locks.Available(context.Background(), e.Slot(t, slot.ID), "fast", e.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, available)

	_, err = uc.Execute(context.Background(), single(e, svc, "slow", slot.ID, 1, ptr.Ptr(lock.ID)))
	assert.ErrorIs(t, err, locks.ErrLockExpired)

	_, err = uc.Execute(context.Background(), single(e, svc, "fast", slot.ID, 1, nil))
	require.NoError(t, err)
}

func TestExecute_EmployeeBusyAcrossServices(t *testing.T) {
	e := testenv.New(t)
	massage := e.EmployeeBased(t, domain.AssignmentManual, 50)
	facial := e.EmployeeBased(t, domain.AssignmentManual, 40)
	anna := e.Employee(t, "anna", massage, facial)
	uc := newUseCase(e)

	first := e.SlotAt(t, massage, "09:00", anna)
	_, err := uc.Execute(context.Background(), &Request{
		TenantID: e.Tenant.ID, ServiceID: massage.ID, CustomerID: customerID, SessionID: "a",
		Items: []Item{{SlotID: first.ID, VisitorCount: 1, EmployeeID: ptr.Ptr(anna)}},
	})
	require.NoError(t, err)

	overlapping := e.SlotAt(t, facial, "09:00", anna)
	_, err = uc.Execute(context.Background(), &Request{
		TenantID: e.Tenant.ID, ServiceID: facial.ID, CustomerID: customerID + 1, SessionID: "b",
		Items: []Item{{SlotID: overlapping.ID, VisitorCount: 1, EmployeeID: ptr.Ptr(anna)}},
	})
	assert.ErrorIs(t, err, domain.ErrEmployeeUnavailable)
	assert.Equal(t, 0, e.Slot(t, overlapping.ID).CapacityBooked)

	adjacent := e.SlotAt(t, facial, "10:00", anna)
	_, err = uc.Execute(context.Background(), &Request{
		TenantID: e.Tenant.ID, ServiceID: facial.ID, CustomerID: customerID + 1, SessionID: "b",
		Items: []Item{{SlotID: adjacent.ID, VisitorCount: 1, EmployeeID: ptr.Ptr(anna)}},
	})
	require.NoError(t, err)
}

func TestExecute_PackageAllOrNothing(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 10, 15)
	slot := e.SlotAt(t, svc, "09:00", 0)
	uc := newUseCase(e)

	_, usages := e.Store.AddSubscription(domain.PackageSubscription{
		TenantID: e.Tenant.ID, CustomerID: customerID, Status: domain.SubscriptionActive, PackageName: "family",
	}, map[int64]int{svc.ID: 2})

	req := single(e, svc, "p", slot.ID, 3, nil)
	req.UsePackage = true
	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.PackageExhausted)
	assert.Equal(t, 45.0, resp.TotalPrice)
	assert.False(t, resp.Bookings[0].PackageCovered)
	usage, _ := e.Store.Usage(usages[svc.ID])
	assert.Equal(t, 2, usage.Remaining())
	require.Len(t, e.Dispatcher.OfType(domain.EventPackageExhausted), 1)

	req = single(e, svc, "p", slot.ID, 2, nil)
	req.UsePackage = true
	resp, err = uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.PackageExhausted)
	assert.Equal(t, 0.0, resp.TotalPrice)
	assert.True(t, resp.Bookings[0].PackageCovered)
	assert.NotNil(t, resp.Bookings[0].PackageSubscriptionID)
	usage, _ = e.Store.Usage(usages[svc.ID])
	assert.Equal(t, 0, usage.Remaining())
	assert.Equal(t, 5, e.Slot(t, slot.ID).CapacityBooked)
}

func TestExecute_BulkPackageCoversWholeRequestOrNothing(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 10, 15)
	nine := e.SlotAt(t, svc, "09:00", 0)
	ten := e.SlotAt(t, svc, "10:00", 0)
	uc := newUseCase(e)

	soon := e.Clock.Now().Add(24 * time.Hour)
	_, expiring := e.Store.AddSubscription(domain.PackageSubscription{
		TenantID: e.Tenant.ID, CustomerID: customerID, Status: domain.SubscriptionActive, PackageName: "trial", ExpiresAt: &soon,
	}, map[int64]int{svc.ID: 1})

	bulk := func(session string) *Request {
		return &Request{
			TenantID: e.Tenant.ID, ServiceID: svc.ID, CustomerID: customerID, SessionID: session, UsePackage: true,
			Items: []Item{
				{SlotID: nine.ID, VisitorCount: 2},
				{SlotID: ten.ID, VisitorCount: 1},
			},
		}
	}

	// Остаток 1 из 3 запрошенных: ни одна позиция не покрывается пакетом
	resp, err := uc.Execute(context.Background(), bulk("short"))
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 2)
	assert.True(t, resp.PackageExhausted)
	assert.Equal(t, 45.0, resp.TotalPrice)
	for _, b := range resp.Bookings {
		assert.False(t, b.PackageCovered)
		assert.Nil(t, b.PackageSubscriptionID)
	}
	usage, _ := e.Store.Usage(expiring[svc.ID])
	assert.Equal(t, 1, usage.Remaining())
	exhausted := e.Dispatcher.OfType(domain.EventPackageExhausted)
	require.Len(t, exhausted, 1)
	assert.Equal(t, "3", exhausted[0].Payload["requested"])
	assert.Equal(t, "1", exhausted[0].Payload["remaining"])

	_, unlimited := e.Store.AddSubscription(domain.PackageSubscription{
		TenantID: e.Tenant.ID, CustomerID: customerID, Status: domain.SubscriptionActive, PackageName: "family",
	}, map[int64]int{svc.ID: 2})

	// Остаток 3: покрыт весь заказ, списание разложено по позициям
	resp, err = uc.Execute(context.Background(), bulk("enough"))
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 2)
	assert.False(t, resp.PackageExhausted)
	assert.Equal(t, 0.0, resp.TotalPrice)
	for _, b := range resp.Bookings {
		assert.True(t, b.PackageCovered)
		assert.NotNil(t, b.PackageSubscriptionID)
	}
	usage, _ = e.Store.Usage(expiring[svc.ID])
	assert.Equal(t, 0, usage.Remaining())
	usage, _ = e.Store.Usage(unlimited[svc.ID])
	assert.Equal(t, 0, usage.Remaining())
	assert.Len(t, e.Dispatcher.OfType(domain.EventPackageExhausted), 1)

	covered := 0
	for _, b := range resp.Bookings {
		allocations, err := e.Store.Packages().ListAllocationsByBooking(context.Background(), b.ID)
		require.NoError(t, err)
		for _, a := range allocations {
			covered += a.Quantity
		}
	}
	assert.Equal(t, 3, covered)
}

func TestExecute_ConcurrentEmployeeAcrossServices(t *testing.T) {
	for round := 0; round < 20; round++ {
		e := testenv.New(t)
		massage := e.EmployeeBased(t, domain.AssignmentManual, 50)
		facial := e.EmployeeBased(t, domain.AssignmentManual, 40)
		anna := e.Employee(t, "anna", massage, facial)
		uc := newUseCase(e)

		slots := []*domain.Slot{e.SlotAt(t, massage, "09:00", anna), e.SlotAt(t, facial, "09:00", anna)}
		errs := make([]error, len(slots))

		var wg sync.WaitGroup
		for i, slot := range slots {
			wg.Add(1)
			go func(i int, slot *domain.Slot) {
				defer wg.Done()
				_, errs[i] = uc.Execute(context.Background(), &Request{
					TenantID: e.Tenant.ID, ServiceID: slot.ServiceID, CustomerID: customerID + int64(i),
					SessionID: fmt.Sprintf("s-%d", i),
					Items:     []Item{{SlotID: slot.ID, VisitorCount: 1, EmployeeID: ptr.Ptr(anna)}},
				})
			}(i, slot)
		}
		wg.Wait()

		committed := 0
		for _, err := range errs {
			if err == nil {
				committed++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrEmployeeUnavailable)
		}
		require.Equal(t, 1, committed, "round %d", round)
		assert.Equal(t, 1, e.Slot(t, slots[0].ID).CapacityBooked+e.Slot(t, slots[1].ID).CapacityBooked)
	}
}

func TestExecute_AutomaticOnlyNeedsLock(t *testing.T) {
	e := testenv.New(t)
	svc := e.EmployeeBased(t, domain.AssignmentAutomatic, 30)
	e.Employee(t, "first", svc)
	second := e.Employee(t, "second", svc)
	uc := newUseCase(e)

	// Прямой выбор слота второго сотрудника в обход ротации
	slot := e.SlotAt(t, svc, "10:00", second)
	_, err := uc.Execute(context.Background(), single(e, svc, "x", slot.ID, 1, nil))
	assert.ErrorIs(t, err, ErrAutomaticNeedsLock)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, e.Slot(t, slot.ID).CapacityBooked)
}

func TestExecute_CommitWithoutLockDropsSessionLock(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 3, 10)
	slot := e.SlotAt(t, svc, "09:00", 0)
	uc := newUseCase(e)

	e.Lock(t, slot.ID, "checkout", 2)
	e.Lock(t, slot.ID, "other", 1)

	_, err := uc.Execute(context.Background(), single(e, svc, "checkout", slot.ID, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Store.LockCount())

	// Емкость сессии учтена один раз: как бронирование
	available, err := e.Locks.Available(context.Background(), e.Slot(t, slot.ID), "third", e.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, available)
	available, err = e.Locks.Available(context.Background(), e.Slot(t, slot.ID), "other", e.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestExecute_BulkIsAllOrNothing(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 2, 10)
	nine := e.SlotAt(t, svc, "09:00", 0)
	ten := e.SlotAt(t, svc, "10:00", 0)
	uc := newUseCase(e)

	_, err := uc.Execute(context.Background(), &Request{
		TenantID: e.Tenant.ID, ServiceID: svc.ID, CustomerID: customerID, SessionID: "bulk",
		Items: []Item{
			{SlotID: nine.ID, VisitorCount: 2},
			{SlotID: ten.ID, VisitorCount: 3},
		},
	})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 0, e.Slot(t, nine.ID).CapacityBooked)
	assert.Equal(t, 0, e.Slot(t, ten.ID).CapacityBooked)
	assert.Empty(t, e.Dispatcher.Events())

	resp, err := uc.Execute(context.Background(), &Request{
		TenantID: e.Tenant.ID, ServiceID: svc.ID, CustomerID: customerID, SessionID: "bulk",
		Items: []Item{
			{SlotID: ten.ID, VisitorCount: 2},
			{SlotID: nine.ID, VisitorCount: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 2)
	assert.Equal(t, nine.ID, resp.Bookings[0].SlotID)
	assert.Equal(t, 30.0, resp.TotalPrice)
}

func TestExecute_AutomaticAssignmentAdvancesRotation(t *testing.T) {
	e := testenv.New(t)
	svc := e.EmployeeBased(t, domain.AssignmentAutomatic, 30)
	first := e.Employee(t, "first", svc)
	second := e.Employee(t, "second", svc)
	uc := newUseCase(e)

	pick := func(session string) *domain.Slot {
		res, err := e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
			TenantID: e.Tenant.ID, SessionID: session, ServiceID: svc.ID,
			Date: testenv.Day, StartTime: types.MustTimeString("10:00"), RequestedCapacity: 1,
		})
		require.NoError(t, err)
		_, err = uc.Execute(context.Background(), single(e, svc, session, res.Slot.ID, 1, ptr.Ptr(res.Lock.ID)))
		require.NoError(t, err)
		return res.Slot
	}

	assert.Equal(t, first, *pick("one").EmployeeID)
	assert.Equal(t, second, *pick("two").EmployeeID)

	// Оба сотрудника заняты в 10:00
	_, err := e.Locks.Acquire(context.Background(), &locks.AcquireRequest{
		TenantID: e.Tenant.ID, SessionID: "three", ServiceID: svc.ID,
		Date: testenv.Day, StartTime: types.MustTimeString("10:00"), RequestedCapacity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrEmployeeUnavailable)
}

func TestExecute_PendingPaymentPolicy(t *testing.T) {
	e := testenv.New(t)
	paid := domain.Tenant{Name: "paid", Timezone: "UTC", RequirePayment: true, IsActive: true}
	paid.ID = e.Store.AddTenant(paid)
	e.Tenant = &paid
	svc := e.ServiceBased(t, 4, 25)
	slot := e.SlotAt(t, svc, "09:00", 0)

	resp, err := newUseCase(e).Execute(context.Background(), single(e, svc, "x", slot.ID, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPendingPayment), resp.Bookings[0].Status)
}

func TestExecute_Rejections(t *testing.T) {
	e := testenv.New(t)
	svc := e.ServiceBased(t, 4, 25)
	other := e.ServiceBased(t, 4, 25)
	slot := e.SlotAt(t, svc, "09:00", 0)
	foreign := e.SlotAt(t, other, "09:00", 0)
	uc := newUseCase(e)

	_, err := uc.Execute(context.Background(), single(e, svc, "", slot.ID, 1, nil))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.Execute(context.Background(), single(e, svc, "x", slot.ID, 0, nil))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), single(e, svc, "x", 99999, 1, nil))
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = uc.Execute(context.Background(), single(e, svc, "x", foreign.ID, 1, nil))
	assert.ErrorIs(t, err, ErrSlotServiceMismatch)

	e.Clock.Advance(2 * time.Hour) // 10:00
	_, err = uc.Execute(context.Background(), single(e, svc, "x", slot.ID, 1, nil))
	assert.ErrorIs(t, err, ErrSlotInPast)
}
