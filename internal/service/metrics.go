package service

import "github.com/prometheus/client_golang/prometheus"

var (
	txSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_submitted_total",
			Help: "Total transactions submitted, by type",
		},
		[]string{"type"},
	)
	txResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_transactions_resolved_total",
			Help: "Total admin resolutions, by decision",
		},
		[]string{"decision"},
	)
	reimbursementsPaid = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_reimbursements_paid_total",
			Help: "Total reimbursements marked as paid out",
		},
	)
	snapshotRebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_snapshot_rebuilds_total",
			Help: "Total fund snapshot recomputations",
		},
	)
	reconcileFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_reconcile_failures_total",
			Help: "Recomputations that failed and left the prior snapshot in place",
		},
	)
)

func init() {
	prometheus.MustRegister(txSubmitted, txResolved, reimbursementsPaid, snapshotRebuilds, reconcileFailures)
}
