// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the process-global Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfetch_proc_terminate_total",
		Help: "Signals sent to extractor process groups by signal and result",
	}, []string{"signal", "result"})

	procWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfetch_proc_wait_total",
		Help: "Extractor process exits observed after termination by outcome",
	}, []string{"outcome"})

	// ExtractorRunsTotal counts extractor invocations by mode (metadata|download) and result.
	ExtractorRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfetch_extractor_runs_total",
		Help: "Total extractor invocations by mode and result",
	}, []string{"mode", "result"})

	// ExtractorDuration tracks wall time of extractor invocations.
	ExtractorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vidfetch_extractor_duration_seconds",
		Help:    "Extractor invocation duration by mode",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300, 900},
	}, []string{"mode"})
)

// IncProcTerminate records a signal delivery attempt against a process group.
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process finally exited.
func IncProcWait(outcome string) {
	procWaitTotal.WithLabelValues(outcome).Inc()
}

// ObserveExtractorRun records one extractor invocation.
func ObserveExtractorRun(mode, result string, d time.Duration) {
	ExtractorRunsTotal.WithLabelValues(mode, result).Inc()
	ExtractorDuration.WithLabelValues(mode).Observe(d.Seconds())
}
