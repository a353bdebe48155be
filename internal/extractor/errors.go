// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstreamRejected means the extractor refused the URL: unsupported
	// site or no formats for this video.
	ErrUpstreamRejected = errors.New("extractor rejected url")
	// ErrStart is returned when the binary could not be launched.
	ErrStart = errors.New("extractor failed to start")
	// ErrTimeout is returned when a metadata run exceeds its deadline.
	ErrTimeout = errors.New("extractor timed out")
)

// rejectionMarkers are stderr fragments yt-dlp prints for user-side failures.
var rejectionMarkers = []string{
	"Unsupported URL",
	"No video formats found.",
}

// ExitError reports a non-zero exit of the extractor.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("extractor exited with code %d", e.Code)
}

// Rejected reports whether stderr carries one of the user-side rejection markers.
func (e *ExitError) Rejected() bool {
	for _, m := range rejectionMarkers {
		if strings.Contains(e.Stderr, m) {
			return true
		}
	}
	return false
}

// classify wraps exit errors carrying a rejection marker with ErrUpstreamRejected.
func classify(err *ExitError) error {
	if err.Rejected() {
		return fmt.Errorf("%w: %w", ErrUpstreamRejected, err)
	}
	return err
}
