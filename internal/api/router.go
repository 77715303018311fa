package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/acquire_lock"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/cancel_booking"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/create_booking"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_available_slots"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_booking"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_customer_bookings"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_customer_packages"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/release_lock"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/reschedule_booking"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/update_booking_status"
)

// Handlers обработчики публичного API
type Handlers struct {
	GetAvailableSlots   *get_available_slots.Handler
	AcquireLock         *acquire_lock.Handler
	ReleaseLock         *release_lock.Handler
	CreateBooking       *create_booking.Handler
	GetBooking          *get_booking.Handler
	RescheduleBooking   *reschedule_booking.Handler
	CancelBooking       *cancel_booking.Handler
	UpdateBookingStatus *update_booking_status.Handler
	GetCustomerBookings *get_customer_bookings.Handler
	GetCustomerPackages *get_customer_packages.Handler
}

// RegisterRoutes регистрирует маршруты /api/v1/tenants/{tenantId}/... на роутере
// lockMiddlewares применяются только к захвату блокировок и созданию бронирований
func RegisterRoutes(router *mux.Router, h Handlers, lockMiddlewares ...mux.MiddlewareFunc) {
	api := router.PathPrefix("/api/v1/tenants/{tenantId:[0-9]+}").Subrouter()

	// Доступность
	api.HandleFunc("/services/{serviceId:[0-9]+}/availability", h.GetAvailableSlots.Handle).Methods(http.MethodGet)

	// Оформление: блокировки и фиксация
	api.Handle("/locks", chain(h.AcquireLock.Handle, lockMiddlewares)).Methods(http.MethodPost)
	api.Handle("/bookings", chain(h.CreateBooking.Handle, lockMiddlewares)).Methods(http.MethodPost)

	api.HandleFunc("/locks/{lockId}", h.ReleaseLock.Handle).Methods(http.MethodDelete)

	// Бронирования
	api.HandleFunc("/bookings/{bookingId:[0-9]+}", h.GetBooking.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{bookingId:[0-9]+}/reschedule", h.RescheduleBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId:[0-9]+}/cancel", h.CancelBooking.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{bookingId:[0-9]+}/status", h.UpdateBookingStatus.Handle).Methods(http.MethodPatch)

	// Клиенты
	api.HandleFunc("/customers/{customerId:[0-9]+}/bookings", h.GetCustomerBookings.Handle).Methods(http.MethodGet)
	api.HandleFunc("/customers/{customerId:[0-9]+}/packages", h.GetCustomerPackages.Handle).Methods(http.MethodGet)
}

func chain(handler http.HandlerFunc, middlewares []mux.MiddlewareFunc) http.Handler {
	var wrapped http.Handler = handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}
