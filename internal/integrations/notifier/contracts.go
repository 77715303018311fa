package notifier

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Sink получатель событий после фиксации (очередь Redis, лог)
type Sink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Metrics счетчик отправленных событий
type Metrics interface {
	IncEventPublished(eventType, outcome string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
