package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (d *recordingDispatcher) Dispatch(events ...domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type fixture struct {
	store      *memory.Store
	clock      *fixedClock
	svc        *Service
	dispatcher *recordingDispatcher
	tenantID   int64
	serviceID  int64
	customerID int64
	slot       *domain.Slot
	usageID    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureIn(t, "")
}

func newFixtureIn(t *testing.T, timezone string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{
		store: store, dispatcher: &recordingDispatcher{}, customerID: 42,
		clock: &fixedClock{now: time.Date(2030, 5, 6, 8, 0, 0, 0, time.UTC)},
	}
	f.tenantID = store.AddTenant(domain.Tenant{Name: "aqua park", Timezone: timezone, IsActive: true})
	f.serviceID = store.AddService(domain.Service{
		TenantID: f.tenantID, Name: "pool", SchedulingType: domain.SchedulingServiceBased,
		DurationMinutes: 60, DefaultCapacity: 10, Price: 15, IsActive: true,
	})

	day := time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)
	_, err := store.Slots().InsertIgnoreDuplicates(ctx, []*domain.Slot{{
		TenantID: f.tenantID, ServiceID: f.serviceID, ShiftID: ptr.Ptr(int64(1)), Date: day,
		StartTime: types.MustTimeString("10:00"), EndTime: types.MustTimeString("11:00"), CapacityTotal: 10,
	}})
	require.NoError(t, err)
	slots, err := store.Slots().ListByServiceAndDate(ctx, f.tenantID, f.serviceID, day)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	f.slot = slots[0]

	_, usages := store.AddSubscription(domain.PackageSubscription{
		TenantID: f.tenantID, CustomerID: f.customerID, Status: domain.SubscriptionActive, PackageName: "5 swims",
	}, map[int64]int{f.serviceID: 5})
	f.usageID = usages[f.serviceID]

	f.svc = NewService(
		store.Bookings(),
		store.Slots(),
		store.Catalog(),
		packages.NewService(store.Packages(), logger.Nop()),
		f.dispatcher,
		store,
		(*metrics.Metrics)(nil),
		logger.Nop(),
	).WithTimeProvider(f.clock)
	return f
}

// book создает бронирование на 2 посетителя, покрытое пакетом
func (f *fixture) book(t *testing.T) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	pkgs := packages.NewService(f.store.Packages(), logger.Nop())

	var created *domain.Booking
	err := f.store.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := f.store.Slots().AdjustBooked(txCtx, f.tenantID, f.slot.ID, 2); err != nil {
			return err
		}
		consumed, err := pkgs.Consume(txCtx, packages.ConsumeRequest{
			TenantID: f.tenantID, CustomerID: f.customerID, ServiceID: f.serviceID, Quantity: 2, Now: time.Now(),
		})
		if err != nil {
			return err
		}
		created, err = f.store.Bookings().Create(txCtx, &domain.Booking{
			TenantID: f.tenantID, SlotID: f.slot.ID, ServiceID: f.serviceID, CustomerID: f.customerID,
			SessionID: "s-1", VisitorCount: 2, Status: domain.StatusConfirmed,
			PackageCovered: true, PackageSubscriptionID: consumed.PrimarySubscriptionID(),
			EntryToken: ptr.Ptr("token-1"), BookingDate: f.slot.Date,
			StartTime: f.slot.StartTime, EndTime: f.slot.EndTime,
		})
		if err != nil {
			return err
		}
		return pkgs.RecordAllocations(txCtx, created.ID, consumed.Allocations)
	})
	require.NoError(t, err)
	return created
}

func TestCancel_ReleasesCapacityAndRestoresPackage(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t)

	usage, _ := f.store.Usage(f.usageID)
	require.Equal(t, 3, usage.Remaining())

	resp, err := f.svc.Cancel(context.Background(), &models.CancelBookingRequest{
		TenantID: f.tenantID, BookingID: booking.ID, CustomerID: f.customerID,
		CancellationReason: ptr.Ptr("plans changed"),
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Nil(t, resp.EntryToken)
	require.NotNil(t, resp.CancellationReason)
	assert.Equal(t, "plans changed", *resp.CancellationReason)

	slot, err := f.store.Slots().GetByID(context.Background(), f.tenantID, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.CapacityBooked)

	usage, _ = f.store.Usage(f.usageID)
	assert.Equal(t, 5, usage.Remaining())

	require.Len(t, f.dispatcher.events, 1)
	assert.Equal(t, domain.EventBookingCancelled, f.dispatcher.events[0].Type)
	assert.Equal(t, "2", f.dispatcher.events[0].Payload["packageRestored"])
}

func TestCancel_Twice(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t)
	req := &models.CancelBookingRequest{TenantID: f.tenantID, BookingID: booking.ID, CustomerID: f.customerID}

	_, err := f.svc.Cancel(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), req)
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.ErrorIs(t, err, domain.ErrValidation)

	slot, err := f.store.Slots().GetByID(context.Background(), f.tenantID, f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.CapacityBooked)
}

func TestCancel_ForeignCustomer(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t)

	_, err := f.svc.Cancel(context.Background(), &models.CancelBookingRequest{
		TenantID: f.tenantID, BookingID: booking.ID, CustomerID: 999,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.dispatcher.events)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t)

	resp, err := f.svc.GetByID(context.Background(), f.tenantID, booking.ID, f.customerID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, resp.ID)
	assert.Equal(t, 2, resp.VisitorCount)
	assert.True(t, resp.PackageCovered)

	_, err = f.svc.GetByID(context.Background(), f.tenantID, booking.ID, 1000)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.GetByID(context.Background(), f.tenantID+1, booking.ID, 0)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetCustomerBookings(t *testing.T) {
	f := newFixture(t)
	f.book(t)
	f.book(t)

	list, err := f.svc.GetCustomerBookings(context.Background(), f.tenantID, f.customerID)
	require.NoError(t, err)
	assert.Len(t, list.Bookings, 2)

	_, err = f.svc.GetCustomerBookings(context.Background(), f.tenantID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t)
	ctx := context.Background()

	err := f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: "pending_payment"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: "cancelled"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: "unknown"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	f.clock.Set(time.Date(2030, 5, 6, 10, 0, 0, 0, time.UTC))
	err = f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: "completed"})
	require.NoError(t, err)

	resp, err := f.svc.GetByID(ctx, f.tenantID, booking.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)

	// завершенное бронирование больше не отменяется
	_, err = f.svc.Cancel(ctx, &models.CancelBookingRequest{TenantID: f.tenantID, BookingID: booking.ID})
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestUpdateStatus_NotBeforeStart(t *testing.T) {
	f := newFixture(t)
	booking := f.book(t)
	ctx := context.Background()

	// 09:59 по времени тенанта, слот начинается в 10:00
	f.clock.Set(time.Date(2030, 5, 6, 9, 59, 0, 0, time.UTC))
	for _, status := range []string{"completed", "no_show"} {
		err := f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: status})
		assert.ErrorIs(t, err, ErrNotStarted, status)
		assert.ErrorIs(t, err, domain.ErrValidation, status)
	}

	resp, err := f.svc.GetByID(ctx, f.tenantID, booking.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)

	f.clock.Set(time.Date(2030, 5, 6, 10, 30, 0, 0, time.UTC))
	require.NoError(t, f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: "no_show"}))

	resp, err = f.svc.GetByID(ctx, f.tenantID, booking.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "no_show", resp.Status)
}

func TestUpdateStatus_NotBeforeStartInTenantZone(t *testing.T) {
	f := newFixtureIn(t, "Europe/Moscow")
	booking := f.book(t)
	ctx := context.Background()

	// 08:00 UTC = 11:00 в Москве, слот 10:00 уже начался
	require.NoError(t, f.svc.UpdateStatus(ctx, &models.UpdateStatusRequest{TenantID: f.tenantID, BookingID: booking.ID, Status: "completed"}))
}
