package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	TenantID      int64
	ServiceID     int64
	Date          time.Time // Дата (без времени)
	SessionID     string    // Сессия оформления: свои блокировки не уменьшают доступность
	EmployeeID    *int64    // Только слоты выбранного сотрудника
	IncludeLocked bool      // Показывать слоты, занятые блокировками других сессий (администрирование)
	IncludePast   bool      // Показывать начавшиеся слоты (редактирование задним числом)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date           time.Time
	TenantID       int64
	ServiceID      int64
	SchedulingType domain.SchedulingType
	AssignmentMode domain.AssignmentMode
	Slots          []Slot
}

// Slot модель временного слота
type Slot struct {
	SlotID            int64
	StartTime         types.TimeString
	EndTime           types.TimeString
	DurationMinutes   int
	EmployeeID        *int64
	CapacityTotal     int
	CapacityBooked    int
	LockedCapacity    int // блокировки других сессий
	AvailableCapacity int

	IsLocked   bool // вся свободная емкость удерживается чужими блокировками
	IsPast     bool // слот уже начался
	IsSelected bool // у сессии есть активная блокировка на слот

	SuggestedEmployeeID *int64 // следующий сотрудник по ротации на это время
	IsSuggested         bool   // строка этого сотрудника
}
