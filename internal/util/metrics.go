package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_created_total",
		Help: "Total number of transactions created through the API",
	})

	TransactionsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_updated_total",
		Help: "Total number of transactions updated through the API",
	})

	TransactionsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_deleted_total",
		Help: "Total number of transactions deleted through the API",
	})

	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_latency_seconds",
		Help:    "Latency of record store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	StoreOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_operation_errors_total",
		Help: "Total number of failed record store operations",
	}, []string{"operation"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "response_cache_lookups_total",
		Help: "Response cache lookups by result",
	}, []string{"result"})

	CacheFlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "response_cache_flushes_total",
		Help: "Total number of full response cache flushes",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "response_cache_evictions_total",
		Help: "Expired entries removed by the response cache sweeper",
	})

	ImportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total number of CSV rows inserted by the bulk importer",
	})

	PrunedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pruned_records_total",
		Help: "Total number of records removed by the retention pruner",
	})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transaction_events_published_total",
		Help: "Transaction change events published to the broker",
	}, []string{"type", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
