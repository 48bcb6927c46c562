// Package metrics declares the prometheus series exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "booking",
	Name:      "created_total",
	Help:      "Bookings inserted.",
})

var BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "booking",
	Name:      "transitions_total",
	Help:      "Booking status changes by target status.",
}, []string{"status"})

var BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "booking",
	Name:      "conflicts_total",
	Help:      "Booking attempts rejected because the slot or assignment was taken.",
})

var SweptRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "sweep",
	Name:      "rows_total",
	Help:      "Rows corrected by inline sweeps.",
}, []string{"kind"})

var SweepErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "sweep",
	Name:      "errors_total",
	Help:      "Per-row sweep failures that were skipped.",
}, []string{"kind"})

var OTTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "ot",
	Name:      "transitions_total",
	Help:      "Trial assignment transitions by history action.",
}, []string{"action"})

var LedgerCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "trainerdesk",
	Subsystem: "settlement",
	Name:      "ledger_corrections_total",
	Help:      "Refunds, refund cancellations and transfers.",
}, []string{"kind"})

// Sweep kinds.
const (
	SweepBookings = "bookings"
	SweepOTExpiry = "ot_expiry"
)
