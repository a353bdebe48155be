// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"math"
	"strconv"
	"strings"
)

// Usable reports whether f can be offered to a client: it has a URL, is not a
// storyboard, has a known size and carries at least one stream. A missing
// codec field counts as present; only the literal "none" marks absence.
func Usable(f RawFormat) bool {
	return f.URL != "" &&
		!strings.Contains(f.FormatNote, "storyboard") &&
		(f.Filesize != 0 || f.FilesizeApprox != 0) &&
		(f.hasVideo() || f.hasAudio())
}

// qualityStrategy extracts one candidate quality label.
type qualityStrategy func(RawFormat) (string, bool)

func heightLabel(suffix string) qualityStrategy {
	return func(f RawFormat) (string, bool) {
		if f.Height == 0 {
			return "", false
		}
		return strconv.FormatFloat(f.Height, 'f', -1, 64) + "p" + suffix, true
	}
}

func bitrateLabel(f RawFormat) (string, bool) {
	if f.ABR == 0 {
		return "", false
	}
	return strconv.FormatFloat(math.Floor(f.ABR+0.5), 'f', -1, 64) + "kbps (Audio)", true
}

func formatNote(f RawFormat) (string, bool) {
	return f.FormatNote, f.FormatNote != ""
}

func formatID(suffix string) qualityStrategy {
	return func(f RawFormat) (string, bool) {
		return f.FormatID + suffix, true
	}
}

var (
	videoAudioQuality = []qualityStrategy{heightLabel(""), formatNote, formatID("")}
	videoOnlyQuality  = []qualityStrategy{heightLabel(" (Video-only)"), formatNote, formatID(" (Video-only)")}
	audioOnlyQuality  = []qualityStrategy{bitrateLabel, formatNote, formatID(" (Audio-only)")}
	fallbackQuality   = []qualityStrategy{formatNote, formatID("")}
)

func firstQuality(f RawFormat, chain []qualityStrategy) string {
	for _, s := range chain {
		if q, ok := s(f); ok {
			return q
		}
	}
	return ""
}

// Classify maps a usable raw format to its client-facing form.
func Classify(f RawFormat) Format {
	var (
		typ   Type
		chain []qualityStrategy
	)
	switch {
	case f.hasVideo() && f.hasAudio():
		typ, chain = TypeVideoAudio, videoAudioQuality
	case f.hasVideo():
		typ, chain = TypeVideoOnly, videoOnlyQuality
	case f.hasAudio():
		typ, chain = TypeAudioOnly, audioOnlyQuality
	default:
		// Unusable formats never get here; keep a sane answer anyway.
		typ, chain = TypeVideoAudio, fallbackQuality
	}

	return Format{
		FormatID:  f.FormatID,
		Extension: f.Ext,
		FileSize:  fileSize(f),
		Quality:   firstQuality(f, chain),
		Type:      typ,
	}
}

func fileSize(f RawFormat) int64 {
	switch {
	case f.Filesize != 0:
		return int64(math.Round(f.Filesize))
	case f.FilesizeApprox != 0:
		return int64(math.Round(f.FilesizeApprox))
	default:
		return 0
	}
}
