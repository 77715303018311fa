package release_lock

import "context"

type LockService interface {
	Release(ctx context.Context, tenantID int64, sessionID, lockID string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
