package slot

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден в тенанте
	ErrSlotNotFound = errors.New("slot.repository: slot not found")

	// ErrCapacityConflict возвращается, когда изменение capacity_booked нарушило бы
	// ограничение 0 <= capacity_booked <= capacity_total
	ErrCapacityConflict = errors.New("slot.repository: capacity guard rejected update")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
