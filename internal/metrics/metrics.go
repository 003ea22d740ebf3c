// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsCreated counts reservations persisted by the server, by lab.
	ReservationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labtrack",
		Name:      "reservations_created_total",
		Help:      "Reservations created, by lab.",
	}, []string{"lab"})

	// ReservationCollisions counts create requests rejected by the collision check.
	ReservationCollisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labtrack",
		Name:      "reservation_collisions_total",
		Help:      "Reservation create requests rejected because of an overlap, by lab.",
	}, []string{"lab"})

	// HistoryEventsRecorded counts audit events stored, by action.
	HistoryEventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labtrack",
		Name:      "history_events_recorded_total",
		Help:      "History events accepted, by action.",
	}, []string{"action"})

	// LoansChanged counts loan state changes, by lab and new status.
	LoansChanged = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "labtrack",
		Name:      "loan_changes_total",
		Help:      "Loan creations and returns, by lab and status.",
	}, []string{"lab", "status"})

	// RequestDuration observes API latency by route and status class.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "labtrack",
		Name:      "http_request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)
