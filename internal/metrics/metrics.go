package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	metricPrefix = "lending_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	jobRuns    *prometheus.CounterVec
	jobLatency *prometheus.HistogramVec

	statusTransitions *prometheus.CounterVec
	ledgerRecordings  *prometheus.CounterVec

	balanceSheet *prometheus.GaugeVec

	exportTotal *prometheus.CounterVec
)

// Init registers the service metrics with reg. A nil reg means the default registerer.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		jobRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "job_runs_total",
				Help: "Total background job runs by job and result",
			},
			[]string{"job", "result"},
		)
		jobLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_duration_seconds",
				Help:    "Background job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		)

		statusTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_transitions_total",
				Help: "Contract status transitions by contract kind and target status",
			},
			[]string{"kind", "status"},
		)
		ledgerRecordings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recordings_total",
				Help: "Repayments, payouts and recoveries recorded, by kind and result",
			},
			[]string{"kind", "result"},
		)

		balanceSheet = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "balance_sheet_amount",
				Help: "Latest computed balance sheet line",
			},
			[]string{"line"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)

		reg.MustRegister(
			httpRequests,
			httpLatency,
			jobRuns,
			jobLatency,
			statusTransitions,
			ledgerRecordings,
			balanceSheet,
			exportTotal,
		)
	})
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveHTTP records one served request
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveJob records a background job run
func ObserveJob(job string, duration time.Duration, err error) {
	if job == "" {
		job = "anonymous"
	}
	if jobRuns != nil {
		jobRuns.WithLabelValues(job, result(err)).Inc()
	}
	if jobLatency != nil {
		jobLatency.WithLabelValues(job).Observe(duration.Seconds())
	}
}

// IncStatusTransition counts a contract moving to status
func IncStatusTransition(kind, status string) {
	if statusTransitions != nil {
		statusTransitions.WithLabelValues(kind, status).Inc()
	}
}

// IncRecording counts a repayment, payout or recovery attempt
func IncRecording(kind string, err error) {
	if ledgerRecordings != nil {
		ledgerRecordings.WithLabelValues(kind, result(err)).Inc()
	}
}

// SetBalanceSheet publishes the latest balance sheet lines
func SetBalanceSheet(lines map[string]decimal.Decimal) {
	if balanceSheet == nil {
		return
	}
	for line, amount := range lines {
		balanceSheet.WithLabelValues(line).Set(amount.InexactFloat64())
	}
}

// IncExport counts a report export
func IncExport(format string, err error) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result(err)).Inc()
	}
}
