package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

var lockColumns = []string{
	"id",
	"tenant_id",
	"slot_id",
	"session_id",
	"reserved_capacity",
	"expires_at",
	"created_at",
}

// Repository репозиторий временных блокировок емкости слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория блокировок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет блокировку; ID генерируется вызывающей стороной
func (r *Repository) Create(ctx context.Context, lock *domain.ReservationLock) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_locks").
		Columns(lockColumns...).
		Values(
			lock.ID,
			lock.TenantID,
			lock.SlotID,
			lock.SessionID,
			lock.ReservedCapacity,
			lock.ExpiresAt,
			lock.CreatedAt,
		).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает блокировку по ID (включая истекшие - решение принимает вызывающий)
func (r *Repository) GetByID(ctx context.Context, tenantID int64, id string) (*domain.ReservationLock, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(lockColumns...).
		From("reservation_locks").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	lock, err := scanLock(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan lock: %w", ErrScanRow, err)
	}

	return lock, nil
}

// ListActiveBySlots получает неистекшие блокировки указанных слотов
// Фильтр expires_at > now применяется всегда, независимо от фоновой очистки
func (r *Repository) ListActiveBySlots(ctx context.Context, tenantID int64, slotIDs []int64, now time.Time) ([]*domain.ReservationLock, error) {
	if len(slotIDs) == 0 {
		return []*domain.ReservationLock{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(lockColumns...).
		From("reservation_locks").
		Where(squirrel.Eq{"tenant_id": tenantID, "slot_id": slotIDs}).
		Where(squirrel.Gt{"expires_at": now}).
		OrderBy("slot_id ASC", "created_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveBySlots - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveBySlots - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	locks := make([]*domain.ReservationLock, 0)
	for rows.Next() {
		lock, err := scanLock(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListActiveBySlots - scan row: %w", ErrScanRow, err)
		}
		locks = append(locks, lock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveBySlots - rows error: %w", ErrScanRow, err)
	}

	return locks, nil
}

// Delete удаляет блокировку
func (r *Repository) Delete(ctx context.Context, tenantID int64, id string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("reservation_locks").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrLockNotFound
	}

	return nil
}

// DeleteBySlotAndSession удаляет прежние блокировки сессии на слот (повторный захват заменяет их)
func (r *Repository) DeleteBySlotAndSession(ctx context.Context, tenantID, slotID int64, sessionID string) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("reservation_locks").
		Where(squirrel.Eq{"tenant_id": tenantID, "slot_id": slotID, "session_id": sessionID}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteBySlotAndSession - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteBySlotAndSession - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteBySlotAndSession - get rows affected: %w", ErrExecQuery, err)
	}

	return int(rowsAffected), nil
}

// DeleteExpired удаляет все истекшие блокировки всех тенантов
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("reservation_locks").
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - get rows affected: %w", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLock(row rowScanner) (*domain.ReservationLock, error) {
	var lock domain.ReservationLock
	err := row.Scan(
		&lock.ID,
		&lock.TenantID,
		&lock.SlotID,
		&lock.SessionID,
		&lock.ReservedCapacity,
		&lock.ExpiresAt,
		&lock.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lock, nil
}
