package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus-коллекторов сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	BookingCommits   *prometheus.CounterVec
	LockAcquisitions *prometheus.CounterVec
	LocksSwept       *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
}

// New регистрирует метрики в глобальном prometheus-реестре
func New(serviceName string) *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegisterer регистрирует метрики в указанном реестре (для тестов)
func NewWithRegisterer(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: constLabels,
		}, []string{}),
		DBInUseConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{}),
		DBIdleConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{}),
		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{}),

		BookingCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_commits_total",
			Help:        "Booking commit attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"operation", "outcome"}),
		LockAcquisitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_lock_acquisitions_total",
			Help:        "Reservation lock acquisitions by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		LocksSwept: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_locks_swept_total",
			Help:        "Expired reservation locks deleted by the sweeper",
			ConstLabels: constLabels,
		}, []string{}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "events_published_total",
			Help:        "Post-commit events handed to the notifier",
			ConstLabels: constLabels,
		}, []string{"type", "outcome"}),
	}
}

// ObserveQuery записывает длительность запроса к БД
func (m *Metrics) ObserveQuery(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// IncBookingCommit увеличивает счётчик коммитов бронирований
func (m *Metrics) IncBookingCommit(operation, outcome string) {
	if m == nil {
		return
	}
	m.BookingCommits.WithLabelValues(operation, outcome).Inc()
}

// IncLockAcquisition увеличивает счётчик попыток захвата слота
func (m *Metrics) IncLockAcquisition(outcome string) {
	if m == nil {
		return
	}
	m.LockAcquisitions.WithLabelValues(outcome).Inc()
}

// AddLocksSwept добавляет количество удалённых просроченных блокировок
func (m *Metrics) AddLocksSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.LocksSwept.WithLabelValues().Add(float64(n))
}

// IncEventPublished увеличивает счётчик отправленных событий
func (m *Metrics) IncEventPublished(eventType, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
