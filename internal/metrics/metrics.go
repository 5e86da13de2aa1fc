package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ChallansCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fg_challans_created_total",
		Help: "Finished-goods delivery challans created, by issue type",
	}, []string{"issue_type"})

	StockIssuedUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fg_stock_issued_units_total",
		Help: "Total units issued against delivery challans, by product",
	}, []string{"product"})

	InsufficientStockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fg_insufficient_stock_total",
		Help: "Issuance attempts rejected for insufficient stock, by product",
	}, []string{"product"})

	CartonsBrokenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fg_cartons_broken_total",
		Help: "Sealed cartons opened to satisfy piece-level requests, by product",
	}, []string{"product"})
)
