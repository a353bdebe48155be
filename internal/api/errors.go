// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/vidfetch/internal/api/middleware"
	"github.com/ManuGH/vidfetch/internal/auth"
	"github.com/ManuGH/vidfetch/internal/download"
	"github.com/ManuGH/vidfetch/internal/extractor"
	"github.com/ManuGH/vidfetch/internal/formats"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/users"
	"github.com/ManuGH/vidfetch/internal/validate"
)

// Stable client-facing messages.
const (
	msgInvalidBody    = "Invalid request body."
	msgFieldsRequired = "All fields are required."
	msgUserExists     = "User already exists."
	msgUserNotFound   = "User does not exist."
	msgWrongPassword  = "Enter correct Password."
	msgSignedUp       = "User signed up successfully."
	msgSignedIn       = "User successfully logged In."
	msgSignedOut      = "User signed out successfully."
	msgSignUpFailed   = "Something went wrong while signingup. Please try again."
	msgSignInFailed   = "Error while Authentication. Please try again."
	msgSignOutFailed  = "Something went wrong while signing out. Please try again."
	msgAuthRequired   = "Authentication required. Please sign in."
	msgTokenFormat    = "Invalid token format."
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgInvalidToken   = "Invalid token."
	msgAuthError      = "Authentication error."
	msgInfoFailed     = "Internal server error while fetching video info."
	msgDownloadFailed = "Internal server error while downloading video."
)

// Error pairs an HTTP status and a stable message with the underlying cause.
// Only Message ever reaches the client.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

type errorMapping struct {
	target  error
	status  int
	message string
}

// errorTable maps domain sentinels to responses; first match wins.
var errorTable = []errorMapping{
	// URL validation
	{validate.ErrURLMissing, http.StatusBadRequest, "Url not found."},
	{validate.ErrURLInvalid, http.StatusBadRequest, "Invalid Url provided."},

	// Extractor and normalizer
	{extractor.ErrUpstreamRejected, http.StatusBadRequest, "Could not retrieve video information. Unsupported URL or video not found."},
	{formats.ErrMalformedUpstream, http.StatusBadRequest, "No video formats found for this URL."},
	{formats.ErrNoFormatsListed, http.StatusBadRequest, "No video formats found for this URL."},
	{formats.ErrNoUsableFormats, http.StatusBadRequest, "No suitable video formats found for this URL."},
	{formats.ErrProcessing, http.StatusInternalServerError, "Failed to process video information."},

	// Download
	{download.ErrMissingParameter, http.StatusBadRequest, "URL, Format ID, and File Extension are required."},
	{download.ErrInvalidExtension, http.StatusBadRequest, "Invalid file extension."},
	{download.ErrProcessStart, http.StatusInternalServerError, "Failed to start video download process on the server."},
	{download.ErrProcessFailed, http.StatusInternalServerError, "Video download process failed unexpectedly."},

	// Accounts
	{auth.ErrMissingCredentials, http.StatusBadRequest, msgFieldsRequired},
	{users.ErrUserExists, http.StatusUnauthorized, msgUserExists},
	{users.ErrUserNotFound, http.StatusNotFound, msgUserNotFound},
	{auth.ErrWrongPassword, http.StatusUnauthorized, msgWrongPassword},

	// Tokens
	{auth.ErrTokenMissing, http.StatusUnauthorized, msgAuthRequired},
	{auth.ErrTokenEmpty, http.StatusUnauthorized, msgTokenFormat},
	{auth.ErrTokenExpired, http.StatusUnauthorized, msgSessionExpired},
	{auth.ErrTokenMalformed, http.StatusForbidden, msgInvalidToken},
	{auth.ErrTokenInvalid, http.StatusForbidden, msgInvalidToken},
	{auth.ErrTokenRevoked, http.StatusForbidden, msgInvalidToken},
}

// toAPIError resolves err to a response. Unmapped errors become a 500 with
// the fallback message.
func toAPIError(err error, fallback string) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return &Error{Status: m.status, Message: m.message, Err: err}
		}
	}
	return &Error{Status: http.StatusInternalServerError, Message: fallback, Err: err}
}

type messageResponse struct {
	Message string `json:"message"`
}

type signInResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so only a log entry remains.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Error().
			Err(err).
			Int(log.FieldStatus, code).
			Msg("failed to encode JSON response")
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, code int, message string) {
	writeJSON(w, r, code, messageResponse{Message: message})
}

// writeError maps err and writes a {"message": ...} body. Server-side
// failures are logged with their cause; client errors at debug level.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	apiErr := toAPIError(err, fallback)

	logger := log.WithComponentFromContext(r.Context(), "api")
	ev := logger.Debug()
	if apiErr.Status >= http.StatusInternalServerError {
		traceID, _ := middleware.ExtractTraceContext(r)
		ev = logger.Error().Str("trace_id", traceID)
	}
	ev.Err(err).
		Int(log.FieldStatus, apiErr.Status).
		Str(log.FieldPath, r.URL.Path).
		Msg(apiErr.Message)

	writeMessage(w, r, apiErr.Status, apiErr.Message)
}
