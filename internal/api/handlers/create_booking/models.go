package create_booking

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceID  int64         `json:"serviceId"`
	CustomerID int64         `json:"customerId"`
	UsePackage bool          `json:"usePackage"`
	Items      []ItemRequest `json:"items"`
}

// ItemRequest позиция заказа
type ItemRequest struct {
	SlotID       int64   `json:"slotId"`
	LockID       *string `json:"lockId,omitempty"`
	VisitorCount int     `json:"visitorCount"`
	EmployeeID   *int64  `json:"employeeId,omitempty"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Bookings         []*models.BookingResponse `json:"bookings"`
	TotalPrice       float64                   `json:"totalPrice"`
	PackageExhausted bool                      `json:"packageExhausted"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(tenantID int64, sessionID string) *createBooking.Request {
	items := make([]createBooking.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, createBooking.Item{
			SlotID:       it.SlotID,
			LockID:       it.LockID,
			VisitorCount: it.VisitorCount,
			EmployeeID:   it.EmployeeID,
		})
	}

	return &createBooking.Request{
		TenantID:   tenantID,
		ServiceID:  r.ServiceID,
		CustomerID: r.CustomerID,
		SessionID:  sessionID,
		Items:      items,
		UsePackage: r.UsePackage,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		Bookings:         resp.Bookings,
		TotalPrice:       resp.TotalPrice,
		PackageExhausted: resp.PackageExhausted,
	}
}
