package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edms_transitions_total",
			Help: "Applied request transitions by action and target stage",
		},
		[]string{"action", "stage"},
	)

	refusalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edms_transition_refusals_total",
			Help: "Transitions declined by the stage engine",
		},
		[]string{"action", "reason"},
	)

	persistRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edms_persist_retries_total",
			Help: "Request writes retried after a version conflict",
		},
	)
)
