package schedule

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий еженедельных шаблонов расписания (смены услуг и смены сотрудников)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListActiveShifts получает активные смены услуги
func (r *Repository) ListActiveShifts(ctx context.Context, tenantID, serviceID int64) ([]*domain.Shift, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"service_id",
		"weekdays",
		"start_time",
		"end_time",
		"capacity",
		"is_active",
	).
		From("shifts").
		Where(squirrel.Eq{"tenant_id": tenantID, "service_id": serviceID, "is_active": true}).
		OrderBy("start_time ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveShifts - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveShifts - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		var shift domain.Shift
		var weekdays pq.Int64Array

		if err := rows.Scan(
			&shift.ID,
			&shift.TenantID,
			&shift.ServiceID,
			&weekdays,
			&shift.StartTime,
			&shift.EndTime,
			&shift.Capacity,
			&shift.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: ListActiveShifts - scan row: %w", ErrScanRow, err)
		}

		shift.Weekdays = toWeekdays(weekdays)
		shifts = append(shifts, &shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveShifts - rows error: %w", ErrScanRow, err)
	}

	return shifts, nil
}

// ListActiveEmployeeShifts получает активные смены указанных сотрудников
func (r *Repository) ListActiveEmployeeShifts(ctx context.Context, tenantID int64, employeeIDs []int64) ([]*domain.EmployeeShift, error) {
	if len(employeeIDs) == 0 {
		return []*domain.EmployeeShift{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"employee_id",
		"weekdays",
		"start_time",
		"end_time",
		"is_active",
	).
		From("employee_shifts").
		Where(squirrel.Eq{"tenant_id": tenantID, "employee_id": employeeIDs, "is_active": true}).
		OrderBy("employee_id ASC", "start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveEmployeeShifts - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveEmployeeShifts - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	shifts := make([]*domain.EmployeeShift, 0)
	for rows.Next() {
		var shift domain.EmployeeShift
		var weekdays pq.Int64Array

		if err := rows.Scan(
			&shift.ID,
			&shift.TenantID,
			&shift.EmployeeID,
			&weekdays,
			&shift.StartTime,
			&shift.EndTime,
			&shift.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: ListActiveEmployeeShifts - scan row: %w", ErrScanRow, err)
		}

		shift.Weekdays = toWeekdays(weekdays)
		shifts = append(shifts, &shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveEmployeeShifts - rows error: %w", ErrScanRow, err)
	}

	return shifts, nil
}

func toWeekdays(arr pq.Int64Array) domain.Weekdays {
	days := make(domain.Weekdays, 0, len(arr))
	for _, d := range arr {
		days = append(days, int(d))
	}
	return days
}
