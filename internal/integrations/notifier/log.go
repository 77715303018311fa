package notifier

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// LogSink пишет события в лог; используется, когда Redis не настроен
type LogSink struct {
	logger Logger
}

// NewLogSink создает получателя событий, пишущего в лог
func NewLogSink(logger Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish записывает событие в лог
func (s *LogSink) Publish(_ context.Context, event domain.Event) error {
	bookingID := int64(0)
	if event.BookingID != nil {
		bookingID = *event.BookingID
	}
	s.logger.Info("event %s: tenant=%d booking=%d customer=%d service=%d payload=%v",
		event.Type, event.TenantID, bookingID, event.CustomerID, event.ServiceID, event.Payload)
	return nil
}
