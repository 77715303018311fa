package catalog

import "errors"

var (
	// ErrTenantNotFound возвращается, когда тенант не найден
	ErrTenantNotFound = errors.New("catalog.repository: tenant not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена в тенанте
	ErrServiceNotFound = errors.New("catalog.repository: service not found")

	// ErrEmployeeNotFound возвращается, когда сотрудник не найден в тенанте
	ErrEmployeeNotFound = errors.New("catalog.repository: employee not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("catalog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("catalog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("catalog.repository: failed to scan row")
)
