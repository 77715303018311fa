package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий справочных данных тенанта: тенанты, услуги, сотрудники
// Данные принадлежат внешним подсистемам, движок их только читает
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetTenant получает тенанта по ID
func (r *Repository) GetTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"timezone",
		"scheduling_override",
		"require_payment",
		"is_active",
		"created_at",
		"updated_at",
	).
		From("tenants").
		Where(squirrel.Eq{"id": tenantID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetTenant - build select query: %w", ErrBuildQuery, err)
	}

	var tenant domain.Tenant
	var override sql.NullString
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Timezone,
		&override,
		&tenant.RequirePayment,
		&tenant.IsActive,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetTenant - scan tenant: %w", ErrScanRow, err)
	}

	if override.Valid {
		st := domain.SchedulingType(override.String)
		tenant.SchedulingOverride = &st
	}
	tenant.CreatedAt = createdAt.Time
	tenant.UpdatedAt = updatedAt.Time

	return &tenant, nil
}

// GetService получает услугу тенанта по ID
func (r *Repository) GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"name",
		"scheduling_type",
		"assignment_mode",
		"duration_minutes",
		"default_capacity",
		"price",
		"is_active",
		"created_at",
		"updated_at",
	).
		From("services").
		Where(squirrel.Eq{"id": serviceID, "tenant_id": tenantID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetService - build select query: %w", ErrBuildQuery, err)
	}

	var service domain.Service
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&service.ID,
		&service.TenantID,
		&service.Name,
		&service.SchedulingType,
		&service.AssignmentMode,
		&service.DurationMinutes,
		&service.DefaultCapacity,
		&service.Price,
		&service.IsActive,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - scan service: %w", ErrScanRow, err)
	}

	service.CreatedAt = createdAt.Time
	service.UpdatedAt = updatedAt.Time

	return &service, nil
}

// GetEmployee получает сотрудника тенанта
// Внутри транзакции строка сотрудника блокируется (FOR UPDATE):
// это точка сериализации для вычисляемой занятости сотрудника
func (r *Repository) GetEmployee(ctx context.Context, tenantID, employeeID int64) (*domain.Employee, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "tenant_id", "name", "is_active", "created_at").
		From("employees").
		Where(squirrel.Eq{"id": employeeID, "tenant_id": tenantID})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetEmployee - build select query: %w", ErrBuildQuery, err)
	}

	var employee domain.Employee
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&employee.ID,
		&employee.TenantID,
		&employee.Name,
		&employee.IsActive,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetEmployee - scan employee: %w", ErrScanRow, err)
	}

	employee.CreatedAt = createdAt.Time

	return &employee, nil
}

// ListServiceEmployeeIDs возвращает отсортированные ID активных сотрудников, назначенных на услугу
// Стабильная сортировка нужна для детерминированной ротации
func (r *Repository) ListServiceEmployeeIDs(ctx context.Context, tenantID, serviceID int64) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("e.id").
		From("employees e").
		Join("employee_services es ON es.employee_id = e.id").
		Where(squirrel.Eq{
			"e.tenant_id":   tenantID,
			"es.service_id": serviceID,
			"e.is_active":   true,
		}).
		OrderBy("e.id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListServiceEmployeeIDs - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListServiceEmployeeIDs - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListServiceEmployeeIDs - scan row: %w", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListServiceEmployeeIDs - rows error: %w", ErrScanRow, err)
	}

	return ids, nil
}

// IsEmployeeAssigned проверяет, что сотрудник назначен на услугу
func (r *Repository) IsEmployeeAssigned(ctx context.Context, tenantID, employeeID, serviceID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		From("employee_services es").
		Join("employees e ON e.id = es.employee_id").
		Where(squirrel.Eq{
			"e.tenant_id":    tenantID,
			"es.employee_id": employeeID,
			"es.service_id":  serviceID,
		}).
		Limit(1).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: IsEmployeeAssigned - build select query: %w", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: IsEmployeeAssigned - scan row: %w", ErrScanRow, err)
	}

	return true, nil
}
