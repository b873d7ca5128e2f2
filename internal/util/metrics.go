package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Total number of reservations created",
	})

	ReservationsFinishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_finished_total",
		Help: "Total number of reservations finished by customers",
	})

	CartActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_actions_total",
		Help: "Total number of cart actions processed",
	}, []string{"action"})

	CartActionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_actions_failed_total",
		Help: "Total number of failed cart actions",
	}, []string{"action", "reason"})

	StockValidationFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_validation_failed_total",
		Help: "Total number of quantity updates rejected by stock validation",
	}, []string{"reason"})

	StockLookupLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_lookup_latency_seconds",
		Help:    "Latency of stock (existencias) lookups",
		Buckets: prometheus.DefBuckets,
	})

	StockCommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_commits_total",
		Help: "Total number of stock deductions committed by the worker",
	})

	StockCommitsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_commits_failed_total",
		Help: "Total number of failed stock deductions",
	}, []string{"reason"})

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
