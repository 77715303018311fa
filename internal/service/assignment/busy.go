package assignment

import "github.com/m04kA/SMC-ReservationEngine/internal/domain"

// BusyEntry интервал, занятый бронированием сотрудника
type BusyEntry struct {
	BookingID int64
	SlotID    int64
	Interval  domain.Interval
}

// BusyMap занятость сотрудников на дату: employee_id -> интервалы
// Занятость не хранится, а каждый раз вычисляется по бронированиям
type BusyMap map[int64][]BusyEntry

// Exclude параметры исключения при проверке занятости
type Exclude struct {
	// SlotID бронирования на тот же слот - это емкость слота, а не занятость сотрудника
	SlotID int64
	// BookingID переносимое бронирование не конфликтует само с собой
	BookingID int64
}

// NewBusyMap строит карту занятости из бронирований
func NewBusyMap(bookings []*domain.Booking) BusyMap {
	busy := make(BusyMap)
	for _, b := range bookings {
		if b.EmployeeID == nil || !b.IsHolding() {
			continue
		}
		busy[*b.EmployeeID] = append(busy[*b.EmployeeID], BusyEntry{
			BookingID: b.ID,
			SlotID:    b.SlotID,
			Interval:  b.Interval(),
		})
	}
	return busy
}

// IsBusy проверяет пересечение окна с бронированиями сотрудника
// (existing_start < requested_end AND existing_end > requested_start)
func (b BusyMap) IsBusy(employeeID int64, window domain.Interval, exclude Exclude) bool {
	for _, entry := range b[employeeID] {
		if exclude.SlotID != 0 && entry.SlotID == exclude.SlotID {
			continue
		}
		if exclude.BookingID != 0 && entry.BookingID == exclude.BookingID {
			continue
		}
		if entry.Interval.Overlaps(window) {
			return true
		}
	}
	return false
}
