package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 5 * time.Second
)

// Dispatcher асинхронно доставляет события после фиксации транзакции
// Медленный или недоступный получатель никогда не блокирует и не откатывает бронирование:
// при переполненной очереди событие отбрасывается с предупреждением в лог
type Dispatcher struct {
	sink    Sink
	metrics Metrics
	logger  Logger
	queue   chan domain.Event
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher создает диспетчер и запускает воркер
func NewDispatcher(sink Sink, metrics Metrics, logger Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	d := &Dispatcher{
		sink:    sink,
		metrics: metrics,
		logger:  logger,
		queue:   make(chan domain.Event, queueSize),
		timeout: defaultPublishTimeout,
		done:    make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sink.Publish(ctx, ev)
		cancel()

		if err != nil {
			d.metrics.IncEventPublished(string(ev.Type), "error")
			d.logger.Error("Dispatcher: failed to publish %s for tenant=%d: %v", ev.Type, ev.TenantID, err)
			continue
		}
		d.metrics.IncEventPublished(string(ev.Type), "ok")
	}
}

// Dispatch ставит события в очередь, не блокируя вызывающего
// После Close события отбрасываются с предупреждением
func (d *Dispatcher) Dispatch(events ...domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ev := range events {
		if d.closed {
			d.metrics.IncEventPublished(string(ev.Type), "dropped")
			d.logger.Warn("Dispatcher: closed, dropping %s for tenant=%d", ev.Type, ev.TenantID)
			continue
		}

		select {
		case d.queue <- ev:
		default:
			d.metrics.IncEventPublished(string(ev.Type), "dropped")
			d.logger.Warn("Dispatcher: queue full, dropping %s for tenant=%d", ev.Type, ev.TenantID)
		}
	}
}

// Close прекращает прием событий и ждет доставки уже поставленных в очередь
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
