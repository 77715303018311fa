package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

// TxRunner источник транзакций (txmanager.TransactionManager или memory.Store)
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor помечает конфликты конкурентного доступа как domain.ErrTransient,
// чтобы вызывающая сторона могла повторить операцию целиком
type Transactor struct {
	inner TxRunner
}

// NewTransactor оборачивает источник транзакций
func NewTransactor(inner TxRunner) *Transactor {
	return &Transactor{inner: inner}
}

// Do выполняет fn в транзакции
func (t *Transactor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return asTransient(t.inner.Do(ctx, fn))
}

// DoSerializable выполняет fn в сериализуемой транзакции
func (t *Transactor) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return asTransient(t.inner.DoSerializable(ctx, fn))
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (t *Transactor) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return asTransient(t.inner.DoReadOnly(ctx, fn))
}

func asTransient(err error) error {
	if err == nil || errors.Is(err, domain.ErrTransient) {
		return err
	}
	if txmanager.IsRetryable(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}
