// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extractor

import (
	"bytes"
	"strings"
	"sync"
)

// maxPartialLine bounds a pending line; longer runs are committed in pieces.
const maxPartialLine = 4096

// LineRing is a thread-safe ring buffer keeping the last N lines written to it.
// Both '\n' and '\r' end a line, so carriage-return progress output rotates
// through the ring. Partial lines are held back until their terminator
// arrives, Flush is called, or they reach maxPartialLine bytes.
type LineRing struct {
	// OnLine, if set, is called for every committed line while the ring is locked.
	OnLine func(line string)

	mu      sync.Mutex
	lines   []string
	head    int
	count   int
	partial []byte
}

// NewLineRing creates a LineRing with the specified capacity.
func NewLineRing(capacity int) *LineRing {
	if capacity < 1 {
		capacity = 50
	}
	return &LineRing{lines: make([]string, capacity)}
}

// Write implements io.Writer.
func (r *LineRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := p
	for len(data) > 0 {
		i := bytes.IndexAny(data, "\r\n")
		n := i
		if n < 0 {
			n = len(data)
		}
		if room := maxPartialLine - len(r.partial); n >= room {
			r.partial = append(r.partial, data[:room]...)
			r.commitPartial()
			data = data[room:]
			continue
		}
		r.partial = append(r.partial, data[:n]...)
		if i < 0 {
			break
		}
		r.commitPartial()
		data = data[i+1:]
	}
	return len(p), nil
}

// Flush commits a trailing partial line, if any.
func (r *LineRing) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitPartial()
}

func (r *LineRing) commitPartial() {
	if len(r.partial) > 0 {
		r.push(string(r.partial))
		r.partial = r.partial[:0]
	}
}

func (r *LineRing) push(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if r.OnLine != nil {
		r.OnLine(line)
	}
	r.lines[r.head] = line
	r.head = (r.head + 1) % len(r.lines)
	if r.count < len(r.lines) {
		r.count++
	}
}

// LastN returns the last n lines in chronological order.
func (r *LineRing) LastN(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	start := (r.head - n + len(r.lines)) % len(r.lines)
	for i := 0; i < n; i++ {
		out[i] = r.lines[(start+i)%len(r.lines)]
	}
	return out
}

// String joins every retained line with newlines.
func (r *LineRing) String() string {
	return strings.Join(r.LastN(len(r.lines)), "\n")
}
