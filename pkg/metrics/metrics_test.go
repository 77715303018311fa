package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry(), "test")

	m.IncBookingCommit("create", "success")
	m.IncBookingCommit("create", "success")
	m.IncLockAcquisition("capacity_exceeded")
	m.AddLocksSwept(3)
	m.AddLocksSwept(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingCommits.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockAcquisitions.WithLabelValues("capacity_exceeded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LocksSwept.WithLabelValues()))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncBookingCommit("create", "success")
		m.IncLockAcquisition("success")
		m.AddLocksSwept(1)
		m.IncEventPublished("booking.created", "ok")
	})
}
