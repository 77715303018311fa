package packages

import "errors"

var (
	// ErrUsageConflict возвращается, когда списание нарушило бы 0 <= used_quantity <= total_quantity
	ErrUsageConflict = errors.New("packages.repository: usage guard rejected update")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("packages.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("packages.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("packages.repository: failed to scan row")
)
