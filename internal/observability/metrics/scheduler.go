package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SchedulerErrorTypeDeadlineExceeded = "deadline_exceeded"
	SchedulerErrorTypeDB               = "db"
	SchedulerErrorTypeUnknown          = "unknown"
)

// SchedulerMetrics captures billing job health signals.
type SchedulerMetrics struct {
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobTimeouts      *prometheus.CounterVec
	jobErrors        *prometheus.CounterVec
	recordsGenerated *prometheus.CounterVec
	overdueSwept     prometheus.Counter
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer)
	})
	return schedulerMetrics
}

func newSchedulerMetrics(registerer prometheus.Registerer) *SchedulerMetrics {
	factory := promauto.With(registerer)
	return &SchedulerMetrics{
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billingd_scheduler_job_runs_total",
			Help: "Scheduler job invocations by job name.",
		}, []string{"job"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billingd_scheduler_job_duration_seconds",
			Help:    "Scheduler job duration by job name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billingd_scheduler_job_timeouts_total",
			Help: "Scheduler job soft timeouts by job name.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billingd_scheduler_job_errors_total",
			Help: "Scheduler job errors by job name and error type.",
		}, []string{"job", "error_type"}),
		recordsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "billingd_billing_records_generated_total",
			Help: "Billing records generated by tenant type.",
		}, []string{"tenant_type"}),
		overdueSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "billingd_billing_overdue_swept_total",
			Help: "Billing records transitioned to overdue by the sweep.",
		}),
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, classifyError(err)).Inc()
}

func (m *SchedulerMetrics) AddRecordsGenerated(tenantType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsGenerated.WithLabelValues(tenantType).Add(float64(n))
}

func (m *SchedulerMetrics) AddOverdueSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.overdueSwept.Add(float64(n))
}

func classifyError(err error) string {
	switch {
	case err == nil:
		return SchedulerErrorTypeUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SchedulerErrorTypeDeadlineExceeded
	default:
		return SchedulerErrorTypeDB
	}
}
