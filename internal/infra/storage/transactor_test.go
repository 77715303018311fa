package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/txmanager"
)

type stubRunner struct{ err error }

func (s stubRunner) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.err
}

func (s stubRunner) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.err
}

func (s stubRunner) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.err
}

func TestTransactor_MarksRetryableErrors(t *testing.T) {
	noop := func(context.Context) error { return nil }

	serialization := fmt.Errorf("%w: %w", txmanager.ErrSerializationFailure, &pq.Error{Code: "40001"})
	err := NewTransactor(stubRunner{err: serialization}).DoSerializable(context.Background(), noop)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.ErrorIs(t, err, txmanager.ErrSerializationFailure)

	deadlock := fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01"})
	assert.ErrorIs(t, NewTransactor(stubRunner{err: deadlock}).Do(context.Background(), noop), domain.ErrTransient)

	plain := errors.New("boom")
	err = NewTransactor(stubRunner{err: plain}).DoReadOnly(context.Background(), noop)
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, domain.ErrTransient)

	assert.NoError(t, NewTransactor(stubRunner{}).Do(context.Background(), noop))
}
