// Package metrics exposes the service's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsAppended counts events appended to session logs, by type.
	EventsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "makereel",
		Subsystem: "events",
		Name:      "appended_total",
		Help:      "Events appended to session logs.",
	}, []string{"type"})

	// CandidatesGenerated counts raw candidates returned by the analysis boundary.
	CandidatesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "makereel",
		Subsystem: "match",
		Name:      "candidates_generated_total",
		Help:      "Raw candidates returned by the analysis service.",
	})

	// CandidatesDropped counts candidates removed by a pipeline stage.
	CandidatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "makereel",
		Subsystem: "match",
		Name:      "candidates_dropped_total",
		Help:      "Candidates dropped by the matching pipeline.",
	}, []string{"stage"})

	// MatchJobs counts finished match jobs by outcome.
	MatchJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "makereel",
		Subsystem: "match",
		Name:      "jobs_total",
		Help:      "Match jobs by terminal status.",
	}, []string{"status"})

	// ActiveStreams tracks currently connected event stream clients.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "makereel",
		Subsystem: "stream",
		Name:      "active_clients",
		Help:      "Connected event stream clients.",
	})
)

// Drop stages recorded by CandidatesDropped.
const (
	StageDurationFilter = "duration_filter"
	StageDedupe         = "dedupe"
)
