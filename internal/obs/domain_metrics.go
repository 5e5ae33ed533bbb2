package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// TotalsComputed counts totals computations by outcome (ok or a promotion
	// configuration warning).
	TotalsComputed *prometheus.CounterVec
	// TransactionsTotal counts completed transaction outcomes.
	TransactionsTotal *prometheus.CounterVec
	// ExportDeliveriesTotal tracks spreadsheet export outcomes.
	ExportDeliveriesTotal *prometheus.CounterVec
	// ExportAttemptLatency records export attempt latency in milliseconds.
	ExportAttemptLatency *prometheus.HistogramVec
	// OverrideTotal counts manual price and total overrides by kind.
	OverrideTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the domain collectors.
// Safe to call from both the API and the worker entrypoints.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		TotalsComputed = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "totals_computed_total",
			Help:      "Count of cart totals computations by outcome.",
		}, []string{"result"}))
		TransactionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Count of transaction completion outcomes.",
		}, []string{"payment_method", "result"}))
		ExportDeliveriesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_deliveries_total",
			Help:      "Count of spreadsheet export delivery outcomes.",
		}, []string{"result"}))
		ExportAttemptLatency = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_attempt_duration_ms",
			Help:      "Latency for spreadsheet export attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"}))
		OverrideTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_total",
			Help:      "Count of manual price and total overrides by kind.",
		}, []string{"kind"}))
	})
}
