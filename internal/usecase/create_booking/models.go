package create_booking

import (
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
)

// Item одна позиция заказа: слот и количество посетителей
type Item struct {
	SlotID       int64
	LockID       *string // блокировка, полученная на шаге оформления (опционально)
	VisitorCount int
	EmployeeID   *int64 // ручной выбор сотрудника
}

// Request модель запроса на создание бронирования
// Одна позиция - обычное бронирование, несколько - пакетное "все или ничего"
type Request struct {
	TenantID   int64
	ServiceID  int64
	CustomerID int64
	SessionID  string
	Items      []Item
	UsePackage bool // списать предоплаченный пакет, если его хватает
}

// Response модель ответа с созданными бронированиями
type Response struct {
	Bookings         []*models.BookingResponse
	TotalPrice       float64
	PackageExhausted bool // пакет был запрошен, но остатка не хватило
}
