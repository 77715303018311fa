package acquire_lock

import (
	"context"

	"github.com/m04kA/SMC-ReservationEngine/internal/service/locks"
)

type LockService interface {
	Acquire(ctx context.Context, req *locks.AcquireRequest) (*locks.AcquireResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
