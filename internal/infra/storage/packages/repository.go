package packages

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий пакетов клиента: подписки, остатки по услугам, списания
// Подписки принадлежат биллингу, движок меняет только used_quantity и журнал списаний
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория пакетов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListUsagesForService получает остатки клиента по услуге в действующих подписках
// Порядок - приоритет списания: сначала подписки, истекающие раньше (бессрочные последними),
// затем более старые подписки
// Внутри транзакции строки остатков блокируются (FOR UPDATE OF u)
func (r *Repository) ListUsagesForService(ctx context.Context, tenantID, customerID, serviceID int64, now time.Time) ([]*domain.PackageUsage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"u.id",
		"u.subscription_id",
		"u.service_id",
		"u.total_quantity",
		"u.used_quantity",
		"s.id",
		"s.tenant_id",
		"s.customer_id",
		"s.package_name",
		"s.status",
		"s.expires_at",
		"s.created_at",
	).
		From("package_usages u").
		Join("package_subscriptions s ON s.id = u.subscription_id").
		Where(squirrel.Eq{
			"s.tenant_id":   tenantID,
			"s.customer_id": customerID,
			"s.status":      domain.SubscriptionActive,
			"u.service_id":  serviceID,
		}).
		Where(squirrel.Or{
			squirrel.Eq{"s.expires_at": nil},
			squirrel.Gt{"s.expires_at": now},
		}).
		OrderBy("s.expires_at ASC NULLS LAST", "s.id ASC", "u.id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF u")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListUsagesForService - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListUsagesForService - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	usages := make([]*domain.PackageUsage, 0)
	for rows.Next() {
		var usage domain.PackageUsage
		var sub domain.PackageSubscription

		if err := rows.Scan(
			&usage.ID,
			&usage.SubscriptionID,
			&usage.ServiceID,
			&usage.TotalQuantity,
			&usage.UsedQuantity,
			&sub.ID,
			&sub.TenantID,
			&sub.CustomerID,
			&sub.PackageName,
			&sub.Status,
			&sub.ExpiresAt,
			&sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListUsagesForService - scan row: %w", ErrScanRow, err)
		}

		usage.Subscription = &sub
		usages = append(usages, &usage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListUsagesForService - rows error: %w", ErrScanRow, err)
	}

	return usages, nil
}

// IncrementUsed изменяет used_quantity на delta с защитой от ухода в минус и превышения total
func (r *Repository) IncrementUsed(ctx context.Context, usageID int64, delta int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("package_usages").
		Set("used_quantity", squirrel.Expr("used_quantity + ?", delta)).
		Where(squirrel.Eq{"id": usageID}).
		Where(squirrel.Expr("used_quantity + ? <= total_quantity", delta)).
		Where(squirrel.Expr("used_quantity + ? >= 0", delta)).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: IncrementUsed - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: IncrementUsed - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: IncrementUsed - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrUsageConflict
	}

	return nil
}

// CreateAllocations сохраняет разбивку списания по подпискам для бронирования
func (r *Repository) CreateAllocations(ctx context.Context, allocations []domain.PackageAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("package_allocations").
		Columns("booking_id", "usage_id", "subscription_id", "quantity")

	for _, a := range allocations {
		insertBuilder = insertBuilder.Values(a.BookingID, a.UsageID, a.SubscriptionID, a.Quantity)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateAllocations - build insert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: CreateAllocations - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// ListAllocationsByBooking получает списания по бронированию
func (r *Repository) ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.PackageAllocation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("booking_id", "usage_id", "subscription_id", "quantity", "created_at").
		From("package_allocations").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("usage_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListAllocationsByBooking - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAllocationsByBooking - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	allocations := make([]domain.PackageAllocation, 0)
	for rows.Next() {
		var a domain.PackageAllocation
		if err := rows.Scan(&a.BookingID, &a.UsageID, &a.SubscriptionID, &a.Quantity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListAllocationsByBooking - scan row: %w", ErrScanRow, err)
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListAllocationsByBooking - rows error: %w", ErrScanRow, err)
	}

	return allocations, nil
}

// DeleteAllocationsByBooking удаляет журнал списаний бронирования после возврата остатков
func (r *Repository) DeleteAllocationsByBooking(ctx context.Context, bookingID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("package_allocations").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: DeleteAllocationsByBooking - build delete query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: DeleteAllocationsByBooking - execute delete: %w", ErrExecQuery, err)
	}

	return nil
}

// CreateExhaustion записывает событие нехватки пакета
func (r *Repository) CreateExhaustion(ctx context.Context, e *domain.PackageExhaustion) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("package_exhaustion_events").
		Columns("tenant_id", "customer_id", "service_id", "requested", "remaining").
		Values(e.TenantID, e.CustomerID, e.ServiceID, e.Requested, e.Remaining).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CreateExhaustion - build insert query: %w", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("%w: CreateExhaustion - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}
