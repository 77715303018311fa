package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	fail   bool
	block  chan struct{}
}

func (s *recordingSink) Publish(_ context.Context, event domain.Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	var m *metrics.Metrics
	d := NewDispatcher(sink, m, logger.Nop(), 4)

	d.Dispatch(
		domain.Event{Type: domain.EventBookingCreated, TenantID: 1},
		domain.Event{Type: domain.EventPackageExhausted, TenantID: 1},
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	require.Equal(t, 2, sink.count())
	assert.Equal(t, domain.EventBookingCreated, sink.events[0].Type)
	assert.Equal(t, domain.EventPackageExhausted, sink.events[1].Type)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	var m *metrics.Metrics
	d := NewDispatcher(sink, m, logger.Nop(), 1)

	// Первое событие забирает воркер и блокируется в sink, второе ложится в очередь,
	// остальные отбрасываются - Dispatch при этом не блокируется
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Dispatch(domain.Event{Type: domain.EventBookingCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.LessOrEqual(t, sink.count(), 2)
	assert.GreaterOrEqual(t, sink.count(), 1)
}

func TestDispatcher_SinkFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{fail: true}
	var m *metrics.Metrics
	d := NewDispatcher(sink, m, logger.Nop(), 2)

	d.Dispatch(domain.Event{Type: domain.EventBookingCancelled})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.Close(ctx))
	assert.Equal(t, 0, sink.count())
}

func TestDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	var m *metrics.Metrics
	d := NewDispatcher(sink, m, logger.Nop(), 4)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.NotPanics(t, func() {
		d.Dispatch(domain.Event{Type: domain.EventBookingCreated, TenantID: 1})
	})
	assert.Equal(t, 0, sink.count())
	require.NoError(t, d.Close(ctx))
}
