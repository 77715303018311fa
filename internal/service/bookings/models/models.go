package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	TenantID           int64
	BookingID          int64
	CustomerID         int64
	CancellationReason *string
}

// UpdateStatusRequest запрос на смену статуса (оплата, завершение визита, неявка)
type UpdateStatusRequest struct {
	TenantID  int64
	BookingID int64
	Status    string
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                    int64   `json:"id"`
	TenantID              int64   `json:"tenantId"`
	SlotID                int64   `json:"slotId"`
	ServiceID             int64   `json:"serviceId"`
	EmployeeID            *int64  `json:"employeeId,omitempty"`
	CustomerID            int64   `json:"customerId"`
	VisitorCount          int     `json:"visitorCount"`
	BookingDate           string  `json:"bookingDate"` // "2025-10-15"
	StartTime             string  `json:"startTime"`   // "10:00"
	EndTime               string  `json:"endTime"`
	Status                string  `json:"status"`
	Price                 float64 `json:"price"`
	PackageCovered        bool    `json:"packageCovered"`
	PackageSubscriptionID *int64  `json:"packageSubscriptionId,omitempty"`
	EntryToken            *string `json:"entryToken,omitempty"`

	RescheduledAt      *string `json:"rescheduledAt,omitempty"` // ISO 8601 format
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                    b.ID,
		TenantID:              b.TenantID,
		SlotID:                b.SlotID,
		ServiceID:             b.ServiceID,
		EmployeeID:            b.EmployeeID,
		CustomerID:            b.CustomerID,
		VisitorCount:          b.VisitorCount,
		BookingDate:           b.BookingDate.Format(domain.DateFormat),
		StartTime:             b.StartTime.String(),
		EndTime:               b.EndTime.String(),
		Status:                string(b.Status),
		Price:                 b.Price,
		PackageCovered:        b.PackageCovered,
		PackageSubscriptionID: b.PackageSubscriptionID,
		EntryToken:            b.EntryToken,
		CancellationReason:    b.CancellationReason,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}

	if b.RescheduledAt != nil {
		formatted := b.RescheduledAt.Format(time.RFC3339)
		resp.RescheduledAt = &formatted
	}

	if b.CancelledAt != nil {
		formatted := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &formatted
	}

	return resp
}

// FromDomainBookings конвертирует слайс domain моделей в DTO
func FromDomainBookings(bookings []*domain.Booking) *BookingListResponse {
	result := &BookingListResponse{Bookings: make([]BookingResponse, 0, len(bookings))}
	for _, b := range bookings {
		result.Bookings = append(result.Bookings, *FromDomainBooking(b))
	}
	return result
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	switch domain.BookingStatus(status) {
	case domain.StatusPendingPayment,
		domain.StatusConfirmed,
		domain.StatusCancelled,
		domain.StatusCompleted,
		domain.StatusNoShow:
		return domain.BookingStatus(status), nil
	default:
		return "", ErrInvalidStatus
	}
}
