package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

func TestInterval_Overlaps(t *testing.T) {
	nine := Interval{Start: types.MustTimeString("09:00"), End: types.MustTimeString("10:00")}

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"same window", nine, true},
		{"partial overlap", Interval{Start: "09:30", End: "10:30"}, true},
		{"contained", Interval{Start: "09:15", End: "09:45"}, true},
		{"touches end", Interval{Start: "10:00", End: "11:00"}, false},
		{"touches start", Interval{Start: "08:00", End: "09:00"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nine.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(nine))
		})
	}
}

func TestSlot_Capacity(t *testing.T) {
	s := &Slot{CapacityTotal: 5, CapacityBooked: 2}

	assert.Equal(t, 3, s.FreeCapacity())
	assert.Equal(t, 1, s.AvailableCapacity(2))
	assert.Equal(t, 0, s.AvailableCapacity(10))
}

func TestSlot_HasStarted(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	s := &Slot{Date: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), StartTime: "10:00"}

	assert.False(t, s.HasStarted(time.Date(2026, 10, 19, 9, 59, 0, 0, loc)))
	assert.True(t, s.HasStarted(time.Date(2026, 10, 19, 10, 0, 0, 0, loc)))
	assert.True(t, s.HasStarted(time.Date(2026, 10, 20, 8, 0, 0, 0, loc)))
}

func TestSumActiveLocks(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	locks := []*ReservationLock{
		{SessionID: "a", ReservedCapacity: 1, ExpiresAt: now.Add(time.Minute)},
		{SessionID: "b", ReservedCapacity: 2, ExpiresAt: now.Add(time.Minute)},
		{SessionID: "c", ReservedCapacity: 4, ExpiresAt: now},
	}

	assert.Equal(t, 3, SumActiveLocks(locks, now, ""))
	assert.Equal(t, 2, SumActiveLocks(locks, now, "a"))
}

func TestEffectiveSchedulingType(t *testing.T) {
	service := &Service{SchedulingType: SchedulingServiceBased}

	assert.Equal(t, SchedulingServiceBased, EffectiveSchedulingType(&Tenant{}, service))

	override := SchedulingEmployeeBased
	assert.Equal(t, SchedulingEmployeeBased, EffectiveSchedulingType(&Tenant{SchedulingOverride: &override}, service))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusConfirmed, InitialStatus(&Tenant{}, 30))
	assert.Equal(t, StatusPendingPayment, InitialStatus(&Tenant{RequirePayment: true}, 30))
	assert.Equal(t, StatusConfirmed, InitialStatus(&Tenant{RequirePayment: true}, 0))
}

func TestPackageSubscription_IsUsable(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&PackageSubscription{Status: SubscriptionActive}).IsUsable(now))
	assert.False(t, (&PackageSubscription{Status: SubscriptionActive, ExpiresAt: ptr.Ptr(now)}).IsUsable(now))
	assert.False(t, (&PackageSubscription{Status: SubscriptionCancelled}).IsUsable(now))
}

func TestWeekdays(t *testing.T) {
	w := Weekdays{1, 3, 5}

	assert.True(t, w.Contains(time.Monday))
	assert.False(t, w.Contains(time.Sunday))
	assert.True(t, w.Valid())
	assert.False(t, Weekdays{7}.Valid())
	assert.False(t, Weekdays{}.Valid())
}
