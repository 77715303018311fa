package slot

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

var slotColumns = []string{
	"id",
	"tenant_id",
	"service_id",
	"shift_id",
	"employee_shift_id",
	"employee_id",
	"slot_date",
	"start_time",
	"end_time",
	"capacity_total",
	"capacity_booked",
	"is_active",
	"created_at",
	"updated_at",
}

// Repository репозиторий материализованных слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertIgnoreDuplicates вставляет сгенерированные слоты пачкой
// Дубликаты отбрасываются уникальными индексами (shift_id, slot_date, start_time)
// и (employee_id, service_id, slot_date, start_time), поэтому повторная генерация идемпотентна
// Возвращает количество реально вставленных строк
func (r *Repository) InsertIgnoreDuplicates(ctx context.Context, slots []*domain.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("slots").
		Columns(
			"tenant_id",
			"service_id",
			"shift_id",
			"employee_shift_id",
			"employee_id",
			"slot_date",
			"start_time",
			"end_time",
			"capacity_total",
			"capacity_booked",
			"is_active",
		)

	for _, s := range slots {
		insertBuilder = insertBuilder.Values(
			s.TenantID,
			s.ServiceID,
			s.ShiftID,
			s.EmployeeShiftID,
			s.EmployeeID,
			domain.NormalizeDate(s.Date),
			s.StartTime,
			s.EndTime,
			s.CapacityTotal,
			0,
			true,
		)
	}

	query, args, err := insertBuilder.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: InsertIgnoreDuplicates - build insert query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: InsertIgnoreDuplicates - execute insert: %w", ErrExecQuery, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: InsertIgnoreDuplicates - get rows affected: %w", ErrExecQuery, err)
	}

	return int(inserted), nil
}

// ListByServiceAndDate получает активные слоты услуги на дату
func (r *Repository) ListByServiceAndDate(ctx context.Context, tenantID, serviceID int64, date time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{
			"tenant_id":  tenantID,
			"service_id": serviceID,
			"slot_date":  domain.NormalizeDate(date),
			"is_active":  true,
		}).
		OrderBy("start_time ASC", "employee_id ASC NULLS FIRST", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByServiceAndDate - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByServiceAndDate - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByServiceAndDate - scan row: %w", ErrScanRow, err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByServiceAndDate - rows error: %w", ErrScanRow, err)
	}

	return slots, nil
}

// GetByID получает слот тенанта по ID
// Внутри транзакции строка блокируется (FOR UPDATE) - счетчик capacity_booked
// изменяется строго последовательно
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	s, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %w", ErrScanRow, err)
	}

	return s, nil
}

// AdjustBooked изменяет capacity_booked на delta с защитой в самом UPDATE:
// строка обновляется, только если результат остается в пределах [0, capacity_total]
func (r *Repository) AdjustBooked(ctx context.Context, tenantID, id int64, delta int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("capacity_booked", squirrel.Expr("capacity_booked + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		Where(squirrel.Expr("capacity_booked + ? <= capacity_total", delta)).
		Where(squirrel.Expr("capacity_booked + ? >= 0", delta)).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AdjustBooked - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: AdjustBooked - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: AdjustBooked - get rows affected: %w", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrCapacityConflict
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.TenantID,
		&s.ServiceID,
		&s.ShiftID,
		&s.EmployeeShiftID,
		&s.EmployeeID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.CapacityTotal,
		&s.CapacityBooked,
		&s.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Date = domain.NormalizeDate(s.Date)
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
