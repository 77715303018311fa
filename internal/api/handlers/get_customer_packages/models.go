package get_customer_packages

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
)

// BalanceResponse HTTP response model
type BalanceResponse struct {
	CustomerID    int64                  `json:"customerId"`
	ServiceID     int64                  `json:"serviceId"`
	Remaining     int                    `json:"remaining"`
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

// SubscriptionResponse вклад подписки в остаток
type SubscriptionResponse struct {
	SubscriptionID int64   `json:"subscriptionId"`
	PackageName    string  `json:"packageName"`
	ExpiresAt      *string `json:"expiresAt,omitempty"`
	Remaining      int     `json:"remaining"`
}

// FromBalance конвертирует остаток сервиса в HTTP response
func FromBalance(b *packages.Balance) *BalanceResponse {
	resp := &BalanceResponse{
		CustomerID:    b.CustomerID,
		ServiceID:     b.ServiceID,
		Remaining:     b.Remaining,
		Subscriptions: make([]SubscriptionResponse, 0, len(b.Subscriptions)),
	}
	for _, c := range b.Subscriptions {
		sub := SubscriptionResponse{
			SubscriptionID: c.SubscriptionID,
			PackageName:    c.PackageName,
			Remaining:      c.Remaining,
		}
		if c.ExpiresAt != nil {
			formatted := c.ExpiresAt.Format(time.RFC3339)
			sub.ExpiresAt = &formatted
		}
		resp.Subscriptions = append(resp.Subscriptions, sub)
	}
	return resp
}
