// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/vidfetch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromhttpExposure(t *testing.T) {
	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func histogramCount(t *testing.T, obs prometheus.Observer) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, obs.(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestObserveExtractorRun(t *testing.T) {
	before := testutil.ToFloat64(metrics.ExtractorRunsTotal.WithLabelValues("metadata", "ok"))
	samples := histogramCount(t, metrics.ExtractorDuration.WithLabelValues("metadata"))

	metrics.ObserveExtractorRun("metadata", "ok", 250*time.Millisecond)

	after := testutil.ToFloat64(metrics.ExtractorRunsTotal.WithLabelValues("metadata", "ok"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, samples+1, histogramCount(t, metrics.ExtractorDuration.WithLabelValues("metadata")))
}

func TestAddDownloadBytesIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(metrics.DownloadBytesTotal)
	metrics.AddDownloadBytes(0)
	metrics.AddDownloadBytes(-5)
	assert.Equal(t, before, testutil.ToFloat64(metrics.DownloadBytesTotal))

	metrics.AddDownloadBytes(1024)
	assert.Equal(t, before+1024, testutil.ToFloat64(metrics.DownloadBytesTotal))
}
