package domain

import "time"

// SubscriptionStatus lifecycle of a package subscription (owned by billing)
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// PackageSubscription a customer's pre-paid allotment
type PackageSubscription struct {
	ID          int64
	TenantID    int64
	CustomerID  int64
	PackageName string
	Status      SubscriptionStatus
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// IsUsable reports whether the subscription may cover bookings at now
func (s *PackageSubscription) IsUsable(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// PackageUsage per-service counter of a subscription
type PackageUsage struct {
	ID             int64
	SubscriptionID int64
	ServiceID      int64
	TotalQuantity  int
	UsedQuantity   int

	// Subscription is populated by repositories that join the owning subscription
	Subscription *PackageSubscription
}

// Remaining capacity left on the counter
func (u *PackageUsage) Remaining() int {
	left := u.TotalQuantity - u.UsedQuantity
	if left < 0 {
		return 0
	}
	return left
}

// PackageAllocation part of a booking covered by one usage counter
type PackageAllocation struct {
	BookingID      int64
	UsageID        int64
	SubscriptionID int64
	Quantity       int
	CreatedAt      time.Time
}

// PackageExhaustion records a booking that fell back to standard pricing
type PackageExhaustion struct {
	ID         int64
	TenantID   int64
	CustomerID int64
	ServiceID  int64
	Requested  int
	Remaining  int
	CreatedAt  time.Time
}
