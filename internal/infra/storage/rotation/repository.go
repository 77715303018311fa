package rotation

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий указателей ротации сотрудников (один на услугу)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория ротации
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает указатель ротации услуги
// Внутри транзакции строка создается при отсутствии и блокируется (FOR UPDATE),
// так что автоматические назначения одной услуги выполняются последовательно
func (r *Repository) Get(ctx context.Context, tenantID, serviceID int64) (*domain.RotationPointer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	inTx := dbmetrics.IsInTransaction(ctx)

	if inTx {
		query, args, err := psqlbuilder.Insert("rotation_pointers").
			Columns("tenant_id", "service_id").
			Values(tenantID, serviceID).
			Suffix("ON CONFLICT (tenant_id, service_id) DO NOTHING").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%w: Get - build insert query: %w", ErrBuildQuery, err)
		}

		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("%w: Get - execute insert: %w", ErrExecQuery, err)
		}
	}

	selectBuilder := psqlbuilder.Select("last_employee_id").
		From("rotation_pointers").
		Where(squirrel.Eq{"tenant_id": tenantID, "service_id": serviceID})

	if inTx {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: Get - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	pointer := &domain.RotationPointer{TenantID: tenantID, ServiceID: serviceID}
	if rows.Next() {
		if err := rows.Scan(&pointer.LastEmployeeID); err != nil {
			return nil, fmt.Errorf("%w: Get - scan row: %w", ErrScanRow, err)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: Get - rows error: %w", ErrScanRow, err)
	}

	return pointer, nil
}

// Set сохраняет последнего назначенного сотрудника услуги
func (r *Repository) Set(ctx context.Context, pointer *domain.RotationPointer) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("rotation_pointers").
		Columns("tenant_id", "service_id", "last_employee_id", "updated_at").
		Values(pointer.TenantID, pointer.ServiceID, pointer.LastEmployeeID, squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (tenant_id, service_id) DO UPDATE SET last_employee_id = EXCLUDED.last_employee_id, updated_at = EXCLUDED.updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Set - build upsert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Set - execute upsert: %w", ErrExecQuery, err)
	}

	return nil
}
