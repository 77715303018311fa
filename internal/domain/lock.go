package domain

import "time"

// ReservationLock is a temporary capacity claim held during checkout.
// It is not a booking.
type ReservationLock struct {
	ID               string
	TenantID         int64
	SlotID           int64
	SessionID        string
	ReservedCapacity int
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// IsActive a lock counts only while its expiry is in the future
func (l *ReservationLock) IsActive(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

// BelongsTo reports whether the lock was issued to the session
func (l *ReservationLock) BelongsTo(sessionID string) bool {
	return l.SessionID == sessionID
}

// SumActiveLocks sums reserved capacity of active locks, skipping locks of excludeSession
func SumActiveLocks(locks []*ReservationLock, now time.Time, excludeSession string) int {
	total := 0
	for _, l := range locks {
		if !l.IsActive(now) {
			continue
		}
		if excludeSession != "" && l.BelongsTo(excludeSession) {
			continue
		}
		total += l.ReservedCapacity
	}
	return total
}
