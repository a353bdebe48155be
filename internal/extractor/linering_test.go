// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRing(t *testing.T) {
	r := NewLineRing(3)

	_, _ = fmt.Fprintf(r, "line1\n")
	_, _ = fmt.Fprintf(r, "line2\n")
	assert.Equal(t, []string{"line1", "line2"}, r.LastN(10))

	_, _ = fmt.Fprintf(r, "line3\n")
	assert.Equal(t, []string{"line1", "line2", "line3"}, r.LastN(10))

	// Wrap
	_, _ = fmt.Fprintf(r, "line4\n")
	assert.Equal(t, []string{"line2", "line3", "line4"}, r.LastN(10))
	assert.Equal(t, []string{"line3", "line4"}, r.LastN(2))
	assert.Equal(t, "line2\nline3\nline4", r.String())
}

func TestLineRing_PartialWrites(t *testing.T) {
	r := NewLineRing(5)
	_, _ = r.Write([]byte("[youtube] abc: Down"))
	_, _ = r.Write([]byte("loading webpage\r\nERROR: "))
	assert.Equal(t, []string{"[youtube] abc: Downloading webpage"}, r.LastN(10))

	_, _ = r.Write([]byte("Unsupported URL"))
	r.Flush()
	assert.Equal(t, []string{"[youtube] abc: Downloading webpage", "ERROR: Unsupported URL"}, r.LastN(10))
}

func TestLineRing_Empty(t *testing.T) {
	r := NewLineRing(0)
	assert.Nil(t, r.LastN(5))
	assert.Equal(t, "", r.String())
}

func TestLineRing_CarriageReturnProgress(t *testing.T) {
	r := NewLineRing(2)
	var seen []string
	r.OnLine = func(line string) { seen = append(seen, line) }

	_, _ = r.Write([]byte("\r[download]  10.0%\r[download]  55.0%\r[download] 100.0%\n"))
	assert.Equal(t, []string{"[download]  55.0%", "[download] 100.0%"}, r.LastN(10))
	assert.Len(t, seen, 3)
}

func TestLineRing_PartialLineIsBounded(t *testing.T) {
	r := NewLineRing(3)
	_, _ = r.Write([]byte(strings.Repeat("x", 2*maxPartialLine+10)))

	lines := r.LastN(10)
	assert.Len(t, lines, 2)
	for _, l := range lines {
		assert.Len(t, l, maxPartialLine)
	}
	assert.LessOrEqual(t, len(r.partial), maxPartialLine)

	r.Flush()
	assert.Equal(t, strings.Repeat("x", 10), r.LastN(1)[0])
}
