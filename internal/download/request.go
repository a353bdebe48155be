// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package download

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/ManuGH/vidfetch/internal/validate"
)

var (
	// ErrMissingParameter means url, formatId or ext was empty.
	ErrMissingParameter = errors.New("url, format id and file extension are required")
	// ErrInvalidExtension means ext is not a plain container name.
	ErrInvalidExtension = errors.New("invalid file extension")
)

// ext ends up in a header filename and in Content-Type.
var extPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,10}$`)

// Request is one download request.
type Request struct {
	URL      string
	FormatID string
	Ext      string
}

// Validate checks r before any process is spawned.
func (r Request) Validate() error {
	if r.URL == "" || r.FormatID == "" || r.Ext == "" {
		return ErrMissingParameter
	}
	if _, err := validate.VideoURL(r.URL); err != nil {
		return err
	}
	if !extPattern.MatchString(r.Ext) {
		return ErrInvalidExtension
	}
	return nil
}

// Filename is the suggested attachment name for a download started at t.
func (r Request) Filename(t time.Time) string {
	return fmt.Sprintf("video_download_%d.%s", t.UnixMilli(), r.Ext)
}

// ContentType is the media type announced for the download.
func (r Request) ContentType() string {
	return "video/" + r.Ext
}
