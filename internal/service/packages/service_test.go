package packages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
)

const (
	tenantID   = int64(1)
	customerID = int64(77)
	serviceID  = int64(5)
)

func consume(t *testing.T, store *memory.Store, svc *Service, qty int) *ConsumeResult {
	t.Helper()
	var result *ConsumeResult
	err := store.DoSerializable(context.Background(), func(txCtx context.Context) error {
		var err error
		result, err = svc.Consume(txCtx, ConsumeRequest{
			TenantID: tenantID, CustomerID: customerID, ServiceID: serviceID, Quantity: qty, Now: time.Now(),
		})
		return err
	})
	require.NoError(t, err)
	return result
}

func TestConsume_AllOrNothing(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Packages(), logger.Nop())
	_, usages := store.AddSubscription(domain.PackageSubscription{
		TenantID: tenantID, CustomerID: customerID, Status: domain.SubscriptionActive, PackageName: "10 visits",
	}, map[int64]int{serviceID: 2})

	// 3 посетителя при остатке 2: пакет не применяется вовсе
	over := consume(t, store, svc, 3)
	assert.False(t, over.Covered)
	assert.True(t, over.Exhausted)
	assert.Equal(t, 2, over.Remaining)
	usage, _ := store.Usage(usages[serviceID])
	assert.Equal(t, 2, usage.Remaining())
	require.Len(t, store.Exhaustions(), 1)
	assert.Equal(t, 3, store.Exhaustions()[0].Requested)

	// 2 посетителя: списываются ровно 2
	exact := consume(t, store, svc, 2)
	assert.True(t, exact.Covered)
	require.Len(t, exact.Allocations, 1)
	assert.Equal(t, 2, exact.Allocations[0].Quantity)
	usage, _ = store.Usage(usages[serviceID])
	assert.Equal(t, 0, usage.Remaining())
}

func TestConsume_SpreadsAcrossSubscriptionsInPriorityOrder(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Packages(), logger.Nop())
	soon := time.Now().Add(72 * time.Hour)

	_, open := store.AddSubscription(domain.PackageSubscription{
		TenantID: tenantID, CustomerID: customerID, Status: domain.SubscriptionActive,
	}, map[int64]int{serviceID: 5})
	expiring, expiringUsage := store.AddSubscription(domain.PackageSubscription{
		TenantID: tenantID, CustomerID: customerID, Status: domain.SubscriptionActive, ExpiresAt: &soon,
	}, map[int64]int{serviceID: 1})

	result := consume(t, store, svc, 3)
	require.True(t, result.Covered)
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, expiringUsage[serviceID], result.Allocations[0].UsageID)
	assert.Equal(t, 1, result.Allocations[0].Quantity)
	assert.Equal(t, open[serviceID], result.Allocations[1].UsageID)
	assert.Equal(t, 2, result.Allocations[1].Quantity)
	assert.NotEqual(t, expiring, *result.PrimarySubscriptionID())
}

func TestConsume_NoSubscriptionIsNotExhaustion(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Packages(), logger.Nop())

	result := consume(t, store, svc, 1)
	assert.False(t, result.Covered)
	assert.False(t, result.Exhausted)
	assert.Empty(t, store.Exhaustions())
}

func TestRestore(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Packages(), logger.Nop())
	_, usages := store.AddSubscription(domain.PackageSubscription{
		TenantID: tenantID, CustomerID: customerID, Status: domain.SubscriptionActive,
	}, map[int64]int{serviceID: 4})

	result := consume(t, store, svc, 3)
	require.NoError(t, svc.RecordAllocations(context.Background(), 900, result.Allocations))

	restored, err := svc.Restore(context.Background(), 900)
	require.NoError(t, err)
	assert.Equal(t, 3, restored)

	usage, _ := store.Usage(usages[serviceID])
	assert.Equal(t, 4, usage.Remaining())

	balance, err := svc.Resolve(context.Background(), tenantID, customerID, serviceID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, balance.Remaining)
	require.Len(t, balance.Subscriptions, 1)
}

func TestSplitAllocations(t *testing.T) {
	allocations := []domain.PackageAllocation{
		{UsageID: 10, SubscriptionID: 1, Quantity: 2},
		{UsageID: 20, SubscriptionID: 2, Quantity: 3},
	}

	parts := SplitAllocations(allocations, []int{1, 3, 1})
	require.Len(t, parts, 3)
	assert.Equal(t, []domain.PackageAllocation{{UsageID: 10, SubscriptionID: 1, Quantity: 1}}, parts[0])
	assert.Equal(t, []domain.PackageAllocation{
		{UsageID: 10, SubscriptionID: 1, Quantity: 1},
		{UsageID: 20, SubscriptionID: 2, Quantity: 2},
	}, parts[1])
	assert.Equal(t, []domain.PackageAllocation{{UsageID: 20, SubscriptionID: 2, Quantity: 1}}, parts[2])

	assert.Equal(t, int64(2), *PrimarySubscription(parts[1]))
	assert.Nil(t, PrimarySubscription(nil))
}
