// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp, "expected noop provider")

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording(), "noop tracer span should be non-recording")
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "zipkin"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: zipkin (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	// The exporter connects lazily, so no collector is needed to construct it.
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ExporterType: "http",
		Endpoint:     "127.0.0.1:4318",
		SamplingRate: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, provider.tp)

	_, span := Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)

	_, _ = NewProvider(context.Background(), Config{Enabled: false})
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestProvider_ShutdownNil(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NoError(t, (&Provider{}).Shutdown(context.Background()))
}

func TestExtractorAttributes(t *testing.T) {
	attrs := ExtractorAttributes("metadata", "https://example.com/v")
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(ExtractorModeKey, "metadata"),
		attribute.String(VideoURLKey, "https://example.com/v"),
	}, attrs)

	assert.Len(t, ExtractorAttributes("download", ""), 1)
}

func TestResultAttributes(t *testing.T) {
	assert.Equal(t, attribute.Int(ExtractorExitCodeKey, 1), ExitCodeAttribute(1))
	assert.Equal(t, attribute.Int(VideoFormatsKey, 12), FormatsAttribute(12))
	assert.Equal(t, attribute.Int64(VideoBytesKey, 4096), BytesAttribute(4096))
	assert.Equal(t, []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, "timeout"),
	}, ErrorAttributes("timeout"))
}
