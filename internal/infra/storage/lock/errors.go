package lock

import "errors"

var (
	// ErrLockNotFound возвращается, когда блокировка не найдена
	ErrLockNotFound = errors.New("lock.repository: reservation lock not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("lock.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("lock.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("lock.repository: failed to scan row")
)
