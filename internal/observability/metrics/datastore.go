// Package metrics provides Prometheus metric collectors for the application components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations
type DatastoreMetrics struct {
	dbOperationsTotal      *prometheus.CounterVec
	dbOperationDuration    *prometheus.HistogramVec
	dbOperationErrorsTotal *prometheus.CounterVec
	queryResultSizeHist    *prometheus.HistogramVec
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{
		dbOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediascan_db_operations_total",
				Help: "Total number of database operations by operation, table and status",
			},
			[]string{"operation", "table", "status"},
		),
		dbOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediascan_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		dbOperationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediascan_db_operation_errors_total",
				Help: "Total number of failed database operations by operation, table and error kind",
			},
			[]string{"operation", "table", "kind"},
		),
		queryResultSizeHist: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mediascan_db_query_result_rows",
				Help:    "Number of rows affected or returned by database operations",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"operation", "table"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.dbOperationsTotal,
		m.dbOperationDuration,
		m.dbOperationErrorsTotal,
		m.queryResultSizeHist,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordDbOperation records a completed database operation with its status
func (m *DatastoreMetrics) RecordDbOperation(operation, table, status string) {
	m.dbOperationsTotal.WithLabelValues(operation, table, status).Inc()
}

// RecordDbOperationDuration records the duration of a database operation
func (m *DatastoreMetrics) RecordDbOperationDuration(operation, table string, seconds float64) {
	m.dbOperationDuration.WithLabelValues(operation, table).Observe(seconds)
}

// RecordDbOperationError records a failed database operation
func (m *DatastoreMetrics) RecordDbOperationError(operation, table, kind string) {
	m.dbOperationErrorsTotal.WithLabelValues(operation, table, kind).Inc()
}

// RecordQueryResultSize records the number of rows touched by an operation
func (m *DatastoreMetrics) RecordQueryResultSize(operation, table string, rows int) {
	m.queryResultSizeHist.WithLabelValues(operation, table).Observe(float64(rows))
}
