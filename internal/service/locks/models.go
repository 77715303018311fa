package locks

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// AcquireRequest запрос на захват емкости слота
// Слот задается либо SlotID, либо услугой, датой и временем начала -
// тогда для услуг по сотрудникам слот выбирается ротацией (или по EmployeeID)
type AcquireRequest struct {
	TenantID          int64
	SessionID         string
	SlotID            int64
	ServiceID         int64
	Date              time.Time
	StartTime         types.TimeString
	EmployeeID        *int64
	RequestedCapacity int
}

// AcquireResult выданная блокировка и слот, на который она выдана
type AcquireResult struct {
	Lock *domain.ReservationLock
	Slot *domain.Slot
}
