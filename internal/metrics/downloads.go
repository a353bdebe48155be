// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Download outcomes.
const (
	DownloadCompleted    = "completed"
	DownloadStartFailed  = "start_failed"
	DownloadFailed       = "failed"
	DownloadAborted      = "aborted"
	DownloadDisconnected = "client_disconnected"
)

var (
	// DownloadsActive is the number of downloads currently streaming.
	DownloadsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vidfetch_downloads_active",
		Help: "Downloads currently being streamed to clients",
	})

	// DownloadBytesTotal counts bytes forwarded from extractor stdout to clients.
	DownloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidfetch_download_bytes_total",
		Help: "Bytes forwarded to download clients",
	})

	downloadOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfetch_download_outcome_total",
		Help: "Finished downloads by outcome",
	}, []string{"outcome"})

	// DownloadKillsTotal counts cancellation-triggered process group kills.
	DownloadKillsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidfetch_download_kills_total",
		Help: "Extractor process groups killed because the client went away or a write failed",
	})
)

// IncDownloadOutcome records how a download request ended.
func IncDownloadOutcome(outcome string) {
	downloadOutcomeTotal.WithLabelValues(outcome).Inc()
}

// IncDownloadKill records a cancellation-triggered process kill.
func IncDownloadKill() {
	DownloadKillsTotal.Inc()
}

// AddDownloadBytes records forwarded bytes.
func AddDownloadBytes(n int) {
	if n > 0 {
		DownloadBytesTotal.Add(float64(n))
	}
}
