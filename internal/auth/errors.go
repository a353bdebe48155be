// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import "errors"

// Token errors, classified for the 401/403 split.
var (
	// ErrTokenMissing: no Authorization header or not a Bearer scheme.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenEmpty: "Bearer " followed by nothing.
	ErrTokenEmpty = errors.New("token empty")
	// ErrTokenMalformed: not a decodable JWT.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired: valid signature, past exp.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid: bad signature, wrong algorithm or missing claims.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenRevoked: signed out before expiry.
	ErrTokenRevoked = errors.New("token revoked")
)

// Credential errors.
var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrWrongPassword      = errors.New("wrong password")
)
