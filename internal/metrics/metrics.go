// Package metrics exposes counters for the reconcile/revoke cycle on the
// admin server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_transactions_processed_total",
		Help: "Feed transactions consumed (matched or not).",
	})
	PaymentsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_payments_matched_total",
		Help: "Transactions matched to a pending order.",
	})
	PaymentsUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_payments_unmatched_total",
		Help: "Transactions that matched no pending order.",
	})
	PaymentsQuarantined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_payments_quarantined_total",
		Help: "Malformed transactions given up on after repeated parse failures.",
	})
	InvitesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_invites_issued_total",
		Help: "Single-use invites created for matched payments.",
	})
	JoinsApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_joins_approved_total",
		Help: "Join requests approved by the access guard.",
	})
	JoinsDeclined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_joins_declined_total",
		Help: "Join requests declined by the access guard.",
	})
	Revocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_revocations_total",
		Help: "Expired subscriptions revoked.",
	})
	RevocationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupgate_revocation_failures_total",
		Help: "Revocations where the transport call failed (state removed anyway).",
	})
)
