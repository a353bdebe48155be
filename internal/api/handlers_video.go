// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/vidfetch/internal/download"
	"github.com/ManuGH/vidfetch/internal/formats"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/telemetry"
	"github.com/ManuGH/vidfetch/internal/validate"
	"go.opentelemetry.io/otel/trace"
)

type videoInfoRequest struct {
	URL string `json:"url"`
}

// handleVideoInfo serves POST /api/v1/video/info.
func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req videoInfoRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if _, err := validate.VideoURL(req.URL); err != nil {
		writeError(w, r, err, msgInfoFailed)
		return
	}

	raw, err := s.extractor.Metadata(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err, msgInfoFailed)
		return
	}

	info, err := formats.Normalize(raw)
	if err != nil {
		writeError(w, r, err, msgInfoFailed)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(telemetry.FormatsAttribute(len(info.Formats)))
	writeJSON(w, r, http.StatusOK, info)
}

// handleDownload serves GET /api/v1/video/download.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := download.Request{
		URL:      q.Get("url"),
		FormatID: q.Get("formatId"),
		Ext:      q.Get("ext"),
	}

	err := s.streamer.Stream(w, r, req)
	switch {
	case err == nil:
	case errors.Is(err, download.ErrClientGone):
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().
			Str(log.FieldEvent, "download.client_gone").
			Msg("client disconnected during download")
	case errors.Is(err, download.ErrAborted):
		// Response already committed.
		panic(http.ErrAbortHandler)
	default:
		writeError(w, r, err, msgDownloadFailed)
	}
}
