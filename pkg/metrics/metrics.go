package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records metadata for scheduled jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(jobLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(jobLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(jobLabel(job)).Inc()
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}

// FlashSaleMetrics tracks purchase attempt outcomes on the hot path. The
// outcome label is low-cardinality: purchased, sold_out, participated,
// rate_limited, busy, rejected, error.
type FlashSaleMetrics struct {
	purchases    *prometheus.CounterVec
	compensation prometheus.Counter
}

// NewFlashSaleMetrics registers the purchase-path metrics.
func NewFlashSaleMetrics(reg prometheus.Registerer) *FlashSaleMetrics {
	if reg == nil {
		return &FlashSaleMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flash_sale_purchase_attempts_total",
		Help: "Purchase attempts by outcome.",
	}, []string{"outcome"})
	compensation := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flash_sale_stock_compensations_total",
		Help: "Cache stock restorations after a failed or reversed reservation.",
	})
	reg.MustRegister(purchases, compensation)
	return &FlashSaleMetrics{
		purchases:    purchases,
		compensation: compensation,
	}
}

// IncPurchase counts one purchase attempt with the given outcome.
func (m *FlashSaleMetrics) IncPurchase(outcome string) {
	if m == nil || m.purchases == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.purchases.WithLabelValues(outcome).Inc()
}

// IncCompensation counts one compensating stock increment.
func (m *FlashSaleMetrics) IncCompensation() {
	if m == nil || m.compensation == nil {
		return
	}
	m.compensation.Inc()
}
