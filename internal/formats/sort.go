// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"sort"
	"strings"
)

var typeRank = map[Type]int{
	TypeVideoAudio: 1,
	TypeVideoOnly:  2,
	TypeAudioOnly:  3,
}

// Sort orders formats in place: video+audio, then video-only, then
// audio-only; within a group by the number leading the quality label
// (height before "p", bitrate before "kbps") descending, labels without a
// number last; remaining ties by file size descending. The sort is stable.
func Sort(list []Format) {
	sort.SliceStable(list, func(i, j int) bool {
		return less(list[i], list[j])
	})
}

func less(a, b Format) bool {
	if ra, rb := typeRank[a.Type], typeRank[b.Type]; ra != rb {
		return ra < rb
	}

	unit := "p"
	if a.Type == TypeAudioOnly {
		unit = "kbps"
	}
	na, okA := leadingNumber(a.Quality, unit)
	nb, okB := leadingNumber(b.Quality, unit)
	switch {
	case okA && okB && na != nb:
		return na > nb
	case okA != okB:
		return okA
	}
	return a.FileSize > b.FileSize
}

// leadingNumber parses the integer at the start of the part of s before unit,
// e.g. 1080 from "1080p60" or 128 from "128kbps (Audio)".
func leadingNumber(s, unit string) (int, bool) {
	if i := strings.Index(s, unit); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimLeft(s, " \t")

	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if digits > 9 {
			break
		}
	}
	return n, digits > 0
}
