// Package metrics exposes Prometheus collectors for the diagnostic
// engine. Collectors register on the default registry and are served by
// the API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed diagnostic runs by report kind.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graydiag_runs_total",
		Help: "Completed diagnostic runs by report kind",
	}, []string{"kind"})

	// SourceFailures counts collaborator failures by source and kind.
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graydiag_source_failures_total",
		Help: "Collaborator call failures by source and failure kind",
	}, []string{"source", "kind"})

	// SourceRetries counts retry attempts by source.
	SourceRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graydiag_source_retries_total",
		Help: "Collaborator call retries by source",
	}, []string{"source"})

	// GatherDuration observes the wall-clock time of the gathering stage.
	GatherDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "graydiag_gather_duration_seconds",
		Help:    "Wall-clock duration of the context gathering stage",
		Buckets: prometheus.DefBuckets,
	})

	// FindingsTotal counts detector findings by pattern kind.
	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graydiag_findings_total",
		Help: "Pattern detector findings by kind",
	}, []string{"kind"})
)
