// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Extractor attributes
	ExtractorModeKey     = "extractor.mode"
	ExtractorExitCodeKey = "extractor.exit_code"

	// Video attributes
	VideoURLKey      = "video.url"
	VideoFormatIDKey = "video.format_id"
	VideoExtKey      = "video.ext"
	VideoFormatsKey  = "video.formats"
	VideoBytesKey    = "video.bytes"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ExtractorAttributes creates extractor span attributes. url must already be sanitized.
func ExtractorAttributes(mode, url string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ExtractorModeKey, mode)}
	if url != "" {
		attrs = append(attrs, attribute.String(VideoURLKey, url))
	}
	return attrs
}

// DownloadAttributes creates download span attributes.
func DownloadAttributes(formatID, ext string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(VideoFormatIDKey, formatID),
		attribute.String(VideoExtKey, ext),
	}
}

// ExitCodeAttribute records the extractor's exit code.
func ExitCodeAttribute(code int) attribute.KeyValue {
	return attribute.Int(ExtractorExitCodeKey, code)
}

// FormatsAttribute records how many formats survived normalization.
func FormatsAttribute(n int) attribute.KeyValue {
	return attribute.Int(VideoFormatsKey, n)
}

// BytesAttribute records how many media bytes reached the client.
func BytesAttribute(n int64) attribute.KeyValue {
	return attribute.Int64(VideoBytesKey, n)
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
