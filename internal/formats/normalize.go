// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrProcessing means the extractor output could not be decoded.
	ErrProcessing = errors.New("failed to process video information")
	// ErrMalformedUpstream means the output is JSON of the wrong shape, or
	// "formats" is missing or not a list.
	ErrMalformedUpstream = errors.New("extractor output has no formats list")
	// ErrNoFormatsListed means "formats" is an empty list.
	ErrNoFormatsListed = errors.New("extractor listed no formats")
	// ErrNoUsableFormats means every listed format was filtered out.
	ErrNoUsableFormats = errors.New("no usable formats")
)

type rawInfo struct {
	Title      string          `json:"title"`
	Duration   *float64        `json:"duration"`
	Thumbnail  string          `json:"thumbnail"`
	Thumbnails []Thumbnail     `json:"thumbnails"`
	Formats    json.RawMessage `json:"formats"`
}

// ResolveThumbnail picks the top-level thumbnail, else the last (preferred)
// candidate, else PlaceholderThumbnail.
func ResolveThumbnail(thumbnail string, candidates []Thumbnail) string {
	if thumbnail != "" {
		return thumbnail
	}
	if n := len(candidates); n > 0 {
		return candidates[n-1].URL
	}
	return PlaceholderThumbnail
}

// Normalize decodes the extractor's -J document and returns the filtered,
// classified and sorted format list.
func Normalize(data []byte) (*VideoInfo, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError(err)
	}

	trimmed := bytes.TrimSpace(raw.Formats)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedUpstream
	}
	var list []RawFormat
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("formats: %w", decodeError(err))
	}
	if len(list) == 0 {
		return nil, ErrNoFormatsListed
	}

	out := make([]Format, 0, len(list))
	for _, f := range list {
		if Usable(f) {
			out = append(out, Classify(f))
		}
	}
	if len(out) == 0 {
		return nil, ErrNoUsableFormats
	}
	Sort(out)

	return &VideoInfo{
		Title:     raw.Title,
		Thumbnail: ResolveThumbnail(raw.Thumbnail, raw.Thumbnails),
		Duration:  raw.Duration,
		Formats:   out,
	}, nil
}

// decodeError separates well-formed JSON of the wrong shape from bytes that
// are not JSON at all.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %w", ErrMalformedUpstream, err)
	}
	return fmt.Errorf("%w: %w", ErrProcessing, err)
}
