// Package metrics exposes prometheus instruments for the billing
// pipeline: background jobs, daily sweeps and gateway traffic.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every metric.
type Config struct {
	ServiceName string
	Environment string
}

// BillingMetrics captures billing pipeline health signals.
type BillingMetrics struct {
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobErrors    *prometheus.CounterVec
	sweepItems   *prometheus.CounterVec
	sweepErrors  *prometheus.CounterVec
	gatewayCalls *prometheus.CounterVec
	gatewayTime  *prometheus.HistogramVec
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton using config labels.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "snarf"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &BillingMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "snarf_job_runs_total",
			Help:        "Background job executions by kind and outcome.",
			ConstLabels: constLabels,
		}, []string{"kind", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "snarf_job_duration_seconds",
			Help:        "Background job latency by kind.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			ConstLabels: constLabels,
		}, []string{"kind"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "snarf_job_errors_total",
			Help:        "Background job errors by kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		sweepItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "snarf_sweep_items_total",
			Help:        "Items processed by the recurring sweeps.",
			ConstLabels: constLabels,
		}, []string{"sweep"}),
		sweepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "snarf_sweep_errors_total",
			Help:        "Per-item failures in the recurring sweeps.",
			ConstLabels: constLabels,
		}, []string{"sweep"}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "snarf_gateway_requests_total",
			Help:        "Bank-slip gateway requests by operation and result.",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),
		gatewayTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "snarf_gateway_request_duration_seconds",
			Help:        "Bank-slip gateway request latency by operation.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		}, []string{"operation"}),
	}

	for _, collector := range []prometheus.Collector{
		m.jobRuns, m.jobDuration, m.jobErrors,
		m.sweepItems, m.sweepErrors,
		m.gatewayCalls, m.gatewayTime,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return m
}

func (m *BillingMetrics) IncJobRun(kind, outcome string) {
	m.jobRuns.WithLabelValues(kind, outcome).Inc()
}

func (m *BillingMetrics) ObserveJobDuration(kind string, d time.Duration) {
	m.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *BillingMetrics) IncJobError(kind string) {
	m.jobErrors.WithLabelValues(kind).Inc()
}

func (m *BillingMetrics) AddSweepItems(sweep string, n int) {
	if n <= 0 {
		return
	}
	m.sweepItems.WithLabelValues(sweep).Add(float64(n))
}

func (m *BillingMetrics) IncSweepError(sweep string) {
	m.sweepErrors.WithLabelValues(sweep).Inc()
}

func (m *BillingMetrics) IncGatewayCall(operation, result string) {
	m.gatewayCalls.WithLabelValues(operation, result).Inc()
}

func (m *BillingMetrics) ObserveGatewayDuration(operation string, d time.Duration) {
	m.gatewayTime.WithLabelValues(operation).Observe(d.Seconds())
}
