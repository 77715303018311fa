package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/assignment"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// lockUsage активные блокировки на слот: чужие и собственные сессии
type lockUsage struct {
	others int
	own    int
}

// sumLocks группирует активные блокировки по слотам
// Истекшие блокировки отбрасываются здесь же, даже если очистка еще не прошла
func sumLocks(locks []*domain.ReservationLock, sessionID string, now time.Time) map[int64]lockUsage {
	usage := make(map[int64]lockUsage)
	for _, l := range locks {
		if !l.IsActive(now) {
			continue
		}
		u := usage[l.SlotID]
		if sessionID != "" && l.BelongsTo(sessionID) {
			u.own += l.ReservedCapacity
		} else {
			u.others += l.ReservedCapacity
		}
		usage[l.SlotID] = u
	}
	return usage
}

// filterParams параметры отбора строк
type filterParams struct {
	busy          assignment.BusyMap
	locks         map[int64]lockUsage
	now           time.Time // текущее время в часовом поясе тенанта
	duration      int
	includeLocked bool
	includePast   bool
}

// buildRows применяет шаги отбора к слотам в порядке:
// занятость сотрудника, полная емкость, блокировки, начавшиеся слоты
func buildRows(slots []*domain.Slot, p filterParams) []Slot {
	rows := make([]Slot, 0, len(slots))

	for _, slot := range slots {
		// Сотрудник занят по другой услуге; бронирования этого же слота - это емкость
		if slot.EmployeeID != nil && p.busy.IsBusy(*slot.EmployeeID, slot.Interval(), assignment.Exclude{SlotID: slot.ID}) {
			continue
		}

		// Подтвержденные бронирования исчерпали емкость
		if slot.FreeCapacity() == 0 {
			continue
		}

		usage := p.locks[slot.ID]
		available := slot.AvailableCapacity(usage.others)
		locked := available == 0
		if locked && !p.includeLocked {
			continue
		}

		past := slot.HasStarted(p.now)
		if past && !p.includePast {
			continue
		}

		rows = append(rows, Slot{
			SlotID:            slot.ID,
			StartTime:         slot.StartTime,
			EndTime:           slot.EndTime,
			DurationMinutes:   p.duration,
			EmployeeID:        slot.EmployeeID,
			CapacityTotal:     slot.CapacityTotal,
			CapacityBooked:    slot.CapacityBooked,
			LockedCapacity:    usage.others,
			AvailableCapacity: available,
			IsLocked:          locked,
			IsPast:            past,
			IsSelected:        usage.own > 0,
		})
	}

	return rows
}

// candidatesByTime сотрудники, доступные для автоматического назначения, по времени начала
// Заблокированные и начавшиеся строки кандидатами не считаются
func candidatesByTime(rows []Slot) (map[types.TimeString][]int64, []types.TimeString) {
	byTime := make(map[types.TimeString][]int64)
	order := make([]types.TimeString, 0)
	for _, row := range rows {
		if row.EmployeeID == nil || row.IsLocked || row.IsPast {
			continue
		}
		if _, seen := byTime[row.StartTime]; !seen {
			order = append(order, row.StartTime)
		}
		byTime[row.StartTime] = append(byTime[row.StartTime], *row.EmployeeID)
	}
	return byTime, order
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	// Обнуляем время, чтобы сравнивать только даты
	dateOnly := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dateOnly.Before(nowOnly)
}
