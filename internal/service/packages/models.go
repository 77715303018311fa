package packages

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Contribution вклад одной подписки в остаток по услуге
type Contribution struct {
	UsageID        int64
	SubscriptionID int64
	PackageName    string
	ExpiresAt      *time.Time
	Remaining      int
}

// Balance суммарный остаток клиента по услуге и подписки в порядке приоритета списания
type Balance struct {
	CustomerID    int64
	ServiceID     int64
	Remaining     int
	Subscriptions []Contribution
}

// ConsumeRequest запрос на списание пакета под бронирование
type ConsumeRequest struct {
	TenantID   int64
	CustomerID int64
	ServiceID  int64
	Quantity   int
	Now        time.Time
}

// ConsumeResult результат списания
// Covered=false и Exhausted=true: остатка не хватило, бронирование оплачивается полностью
type ConsumeResult struct {
	Covered     bool
	Exhausted   bool
	Remaining   int // остаток до списания
	Allocations []domain.PackageAllocation
	Exhaustion  *domain.PackageExhaustion
}

// PrimarySubscriptionID подписка с наибольшим списанием (для ссылки из бронирования)
func (r *ConsumeResult) PrimarySubscriptionID() *int64 {
	return PrimarySubscription(r.Allocations)
}

// PrimarySubscription подписка с наибольшей долей в наборе списаний
func PrimarySubscription(allocations []domain.PackageAllocation) *int64 {
	var best *domain.PackageAllocation
	for i := range allocations {
		if best == nil || allocations[i].Quantity > best.Quantity {
			best = &allocations[i]
		}
	}
	if best == nil {
		return nil
	}
	id := best.SubscriptionID
	return &id
}

// SplitAllocations раскладывает одно списание по позициям заказа в порядке их следования
// Сумма quantities должна совпадать с суммой списания
func SplitAllocations(allocations []domain.PackageAllocation, quantities []int) [][]domain.PackageAllocation {
	parts := make([][]domain.PackageAllocation, len(quantities))
	src := 0
	left := 0
	if len(allocations) > 0 {
		left = allocations[0].Quantity
	}

	for i, need := range quantities {
		for need > 0 && src < len(allocations) {
			take := min(need, left)
			part := allocations[src]
			part.Quantity = take
			parts[i] = append(parts[i], part)

			need -= take
			left -= take
			if left == 0 {
				src++
				if src < len(allocations) {
					left = allocations[src].Quantity
				}
			}
		}
	}
	return parts
}
