package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FleetStatusTransitions counts sweep-applied transitions by target status.
	FleetStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bombersbar_fleet_status_transitions_total",
		Help: "Fleet status transitions applied by the status sweep.",
	}, []string{"to"})

	// SrpDecisions counts admin SRP decisions by action.
	SrpDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bombersbar_srp_decisions_total",
		Help: "SRP request decisions (approve/deny/pay/cancel).",
	}, []string{"action"})

	// MailQueueEvents counts outbound mail queue events (queued/sent/failed/dead).
	MailQueueEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bombersbar_mail_queue_events_total",
		Help: "Outbound evemail queue events.",
	}, []string{"event"})

	// SrpMailIntakeRuns counts intake runs by outcome.
	SrpMailIntakeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bombersbar_srp_mail_intake_runs_total",
		Help: "SRP mail intake runs (completed/skipped/failed).",
	}, []string{"outcome"})
)
