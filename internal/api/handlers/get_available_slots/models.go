package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-ReservationEngine/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date           string         `json:"date"`
	TenantID       int64          `json:"tenantId"`
	ServiceID      int64          `json:"serviceId"`
	SchedulingType string         `json:"schedulingType"`
	AssignmentMode string         `json:"assignmentMode"`
	Slots          []SlotResponse `json:"slots"`
}

// SlotResponse HTTP модель слота
type SlotResponse struct {
	SlotID              int64  `json:"slotId"`
	StartTime           string `json:"startTime"`
	EndTime             string `json:"endTime"`
	DurationMinutes     int    `json:"durationMinutes"`
	EmployeeID          *int64 `json:"employeeId,omitempty"`
	CapacityTotal       int    `json:"capacityTotal"`
	CapacityBooked      int    `json:"capacityBooked"`
	LockedCapacity      int    `json:"lockedCapacity"`
	AvailableCapacity   int    `json:"availableCapacity"`
	IsLocked            bool   `json:"isLocked"`
	IsPast              bool   `json:"isPast"`
	IsSelected          bool   `json:"isSelected"`
	SuggestedEmployeeID *int64 `json:"suggestedEmployeeId,omitempty"`
	IsSuggested         bool   `json:"isSuggested"`
}

// ToUseCaseRequest собирает запрос use case из параметров пути и строки запроса
func ToUseCaseRequest(tenantID, serviceID int64, dateStr, sessionID string, employeeID *int64, includeLocked, includePast bool) (*getAvailableSlots.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		TenantID:      tenantID,
		ServiceID:     serviceID,
		Date:          date,
		SessionID:     sessionID,
		EmployeeID:    employeeID,
		IncludeLocked: includeLocked,
		IncludePast:   includePast,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			SlotID:              s.SlotID,
			StartTime:           s.StartTime.String(),
			EndTime:             s.EndTime.String(),
			DurationMinutes:     s.DurationMinutes,
			EmployeeID:          s.EmployeeID,
			CapacityTotal:       s.CapacityTotal,
			CapacityBooked:      s.CapacityBooked,
			LockedCapacity:      s.LockedCapacity,
			AvailableCapacity:   s.AvailableCapacity,
			IsLocked:            s.IsLocked,
			IsPast:              s.IsPast,
			IsSelected:          s.IsSelected,
			SuggestedEmployeeID: s.SuggestedEmployeeID,
			IsSuggested:         s.IsSuggested,
		})
	}

	return &AvailableSlotsResponse{
		Date:           resp.Date.Format(domain.DateFormat),
		TenantID:       resp.TenantID,
		ServiceID:      resp.ServiceID,
		SchedulingType: string(resp.SchedulingType),
		AssignmentMode: string(resp.AssignmentMode),
		Slots:          slots,
	}
}
