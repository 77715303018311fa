package acquire_lock

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// AcquireLockRequest HTTP request model
// Слот задается либо slotId, либо serviceId + date + startTime
type AcquireLockRequest struct {
	SlotID     int64  `json:"slotId,omitempty"`
	ServiceID  int64  `json:"serviceId,omitempty"`
	Date       string `json:"date,omitempty"`      // "2025-10-15"
	StartTime  string `json:"startTime,omitempty"` // "10:00"
	EmployeeID *int64 `json:"employeeId,omitempty"`
	Capacity   int    `json:"capacity"`
}

// LockResponse HTTP response model
type LockResponse struct {
	LockID           string `json:"lockId"`
	SlotID           int64  `json:"slotId"`
	EmployeeID       *int64 `json:"employeeId,omitempty"`
	SlotDate         string `json:"slotDate"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	ReservedCapacity int    `json:"reservedCapacity"`
	ExpiresAt        string `json:"expiresAt"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *AcquireLockRequest) ToServiceRequest(tenantID int64, sessionID string) (*locks.AcquireRequest, error) {
	req := &locks.AcquireRequest{
		TenantID:          tenantID,
		SessionID:         sessionID,
		SlotID:            r.SlotID,
		ServiceID:         r.ServiceID,
		EmployeeID:        r.EmployeeID,
		RequestedCapacity: r.Capacity,
	}
	if r.SlotID > 0 {
		return req, nil
	}

	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}
	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}
	req.Date = date
	req.StartTime = startTime
	return req, nil
}

// FromServiceResult конвертирует выданную блокировку в HTTP response
func FromServiceResult(res *locks.AcquireResult) *LockResponse {
	return &LockResponse{
		LockID:           res.Lock.ID,
		SlotID:           res.Slot.ID,
		EmployeeID:       res.Slot.EmployeeID,
		SlotDate:         res.Slot.Date.Format(domain.DateFormat),
		StartTime:        res.Slot.StartTime.String(),
		EndTime:          res.Slot.EndTime.String(),
		ReservedCapacity: res.Lock.ReservedCapacity,
		ExpiresAt:        res.Lock.ExpiresAt.Format(time.RFC3339),
	}
}
