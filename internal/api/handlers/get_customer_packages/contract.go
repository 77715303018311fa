package get_customer_packages

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/service/packages"
)

type PackageService interface {
	Resolve(ctx context.Context, tenantID, customerID, serviceID int64, now time.Time) (*packages.Balance, error)
}

type TimeProvider interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type RealTimeProvider struct{}

func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
