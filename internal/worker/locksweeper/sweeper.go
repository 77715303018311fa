package locksweeper

import (
	"context"
	"time"
)

const defaultInterval = 30 * time.Second

// LockSweeper интерфейс очистки истекших блокировок
type LockSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Worker периодически удаляет истекшие блокировки
// Корректность не зависит от интервала: читатели сами отбрасывают истекшие блокировки
type Worker struct {
	locks    LockSweeper
	interval time.Duration
	logger   Logger
}

// New создает воркер очистки; interval <= 0 заменяется значением по умолчанию
func New(locks LockSweeper, interval time.Duration, logger Logger) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{locks: locks, interval: interval, logger: logger}
}

// Run выполняет очистку по таймеру до отмены контекста
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("LockSweeper: started with interval %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("LockSweeper: stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.locks.Sweep(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("LockSweeper: sweep failed: %v", err)
	}
}
