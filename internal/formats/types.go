// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package formats turns the extractor's raw format listing into the
// classified, sorted list served to clients. It performs no I/O.
package formats

// Type classifies a format by the streams it carries.
type Type string

const (
	TypeVideoAudio Type = "video+audio"
	TypeVideoOnly  Type = "video-only"
	TypeAudioOnly  Type = "audio-only"
)

// codecNone is the extractor's sentinel for an absent stream.
const codecNone = "none"

// PlaceholderThumbnail is served when the extractor reports no thumbnail.
const PlaceholderThumbnail = "https://via.placeholder.com/150"

// RawFormat is one entry of the extractor's "formats" list.
// Zero values stand for absent or null fields.
type RawFormat struct {
	FormatID       string  `json:"format_id"`
	URL            string  `json:"url"`
	Ext            string  `json:"ext"`
	FormatNote     string  `json:"format_note"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         float64 `json:"height"`
	ABR            float64 `json:"abr"`

	// Carried for completeness; not used by classification.
	Protocol   string  `json:"protocol"`
	Width      float64 `json:"width"`
	TBR        float64 `json:"tbr"`
	Resolution string  `json:"resolution"`
}

// Thumbnail is one entry of the extractor's "thumbnails" list.
type Thumbnail struct {
	URL string `json:"url"`
}

// Format is a client-facing format entry.
type Format struct {
	FormatID  string `json:"formatId"`
	Extension string `json:"extension"`
	FileSize  int64  `json:"fileSize"`
	Quality   string `json:"quality"`
	Type      Type   `json:"type"`
}

// VideoInfo is the normalized metadata response.
type VideoInfo struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
	Formats   []Format `json:"formats"`
}

func (f RawFormat) hasVideo() bool { return f.VCodec != codecNone }
func (f RawFormat) hasAudio() bool { return f.ACodec != codecNone }
