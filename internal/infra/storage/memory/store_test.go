package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ReservationEngine/pkg/ptr"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

func seedSlot(t *testing.T, s *Store, capacity int) *domain.Slot {
	t.Helper()
	tenantID := s.AddTenant(domain.Tenant{Name: "spa", IsActive: true})
	n, err := s.Slots().InsertIgnoreDuplicates(context.Background(), []*domain.Slot{{
		TenantID:      tenantID,
		ServiceID:     10,
		ShiftID:       ptr.Ptr(int64(1)),
		Date:          time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:     types.MustTimeString("09:00"),
		EndTime:       types.MustTimeString("10:00"),
		CapacityTotal: capacity,
	}})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	slots, err := s.Slots().ListByServiceAndDate(context.Background(), tenantID, 10, time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	return slots[0]
}

func TestStore_RollbackDiscardsChanges(t *testing.T) {
	s := NewStore()
	slot := seedSlot(t, s, 2)

	boom := errors.New("boom")
	err := s.DoSerializable(context.Background(), func(txCtx context.Context) error {
		require.NoError(t, s.Slots().AdjustBooked(txCtx, slot.TenantID, slot.ID, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Slots().GetByID(context.Background(), slot.TenantID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CapacityBooked)
}

func TestStore_CommitPublishesChanges(t *testing.T) {
	s := NewStore()
	slot := seedSlot(t, s, 2)

	err := s.DoSerializable(context.Background(), func(txCtx context.Context) error {
		return s.Slots().AdjustBooked(txCtx, slot.TenantID, slot.ID, 2)
	})
	require.NoError(t, err)

	got, err := s.Slots().GetByID(context.Background(), slot.TenantID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CapacityBooked)

	err = s.Slots().AdjustBooked(context.Background(), slot.TenantID, slot.ID, 1)
	assert.ErrorIs(t, err, slotRepo.ErrCapacityConflict)
}

func TestStore_InsertIgnoresDuplicates(t *testing.T) {
	s := NewStore()
	slot := seedSlot(t, s, 1)

	dup := *slot
	dup.ID = 0
	n, err := s.Slots().InsertIgnoreDuplicates(context.Background(), []*domain.Slot{&dup})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, s.SlotCount())
}

func TestStore_LocksFilteredByExpiry(t *testing.T) {
	s := NewStore()
	slot := seedSlot(t, s, 3)
	now := time.Now()

	require.NoError(t, s.Locks().Create(context.Background(), &domain.ReservationLock{
		ID: "a", TenantID: slot.TenantID, SlotID: slot.ID, SessionID: "s1", ReservedCapacity: 1, ExpiresAt: now.Add(time.Minute),
	}))
	require.NoError(t, s.Locks().Create(context.Background(), &domain.ReservationLock{
		ID: "b", TenantID: slot.TenantID, SlotID: slot.ID, SessionID: "s2", ReservedCapacity: 1, ExpiresAt: now.Add(-time.Second),
	}))

	active, err := s.Locks().ListActiveBySlots(context.Background(), slot.TenantID, []int64{slot.ID}, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)

	removed, err := s.Locks().DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, s.LockCount())
}

func TestStore_PackagePriority(t *testing.T) {
	s := NewStore()
	now := time.Now()
	soon := now.Add(24 * time.Hour)
	later := now.Add(48 * time.Hour)

	_, noExpiry := s.AddSubscription(domain.PackageSubscription{TenantID: 1, CustomerID: 7, Status: domain.SubscriptionActive}, map[int64]int{5: 3})
	_, laterUsage := s.AddSubscription(domain.PackageSubscription{TenantID: 1, CustomerID: 7, Status: domain.SubscriptionActive, ExpiresAt: &later}, map[int64]int{5: 3})
	_, soonUsage := s.AddSubscription(domain.PackageSubscription{TenantID: 1, CustomerID: 7, Status: domain.SubscriptionActive, ExpiresAt: &soon}, map[int64]int{5: 3})
	s.AddSubscription(domain.PackageSubscription{TenantID: 1, CustomerID: 7, Status: domain.SubscriptionCancelled}, map[int64]int{5: 3})

	usages, err := s.Packages().ListUsagesForService(context.Background(), 1, 7, 5, now)
	require.NoError(t, err)
	require.Len(t, usages, 3)
	assert.Equal(t, soonUsage[5], usages[0].ID)
	assert.Equal(t, laterUsage[5], usages[1].ID)
	assert.Equal(t, noExpiry[5], usages[2].ID)
}

func TestStore_LoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[tenants]]
id = 1
name = "Studio"
timezone = "Europe/Moscow"

[[services]]
id = 2
tenant_id = 1
name = "Massage"
scheduling_type = "employee_based"
assignment_mode = "both"
duration_minutes = 60
default_capacity = 1

[[employees]]
id = 3
tenant_id = 1
name = "Anna"
services = [2]

[[employee_shifts]]
tenant_id = 1
employee_id = 3
weekdays = [1, 2, 3]
start_time = "09:00"
end_time = "13:00"
`), 0o600))

	s := NewStore()
	require.NoError(t, s.LoadSeed(path))

	tenant, err := s.Catalog().GetTenant(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", tenant.Timezone)

	ids, err := s.Catalog().ListServiceEmployeeIDs(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	shifts, err := s.Schedules().ListActiveEmployeeShifts(context.Background(), 1, []int64{3})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, types.TimeString("13:00"), shifts[0].EndTime)
}
