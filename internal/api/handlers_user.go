// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ManuGH/vidfetch/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// decodeJSON reads a bounded JSON body into v. An empty body decodes to the
// zero value so missing fields are reported as such.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// handleSignUp serves POST /api/v1/user/signup.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := s.auth.SignUp(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, err, msgSignUpFailed)
		return
	}
	writeMessage(w, r, http.StatusOK, msgSignedUp)
}

// handleSignIn serves POST /api/v1/user/signin.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, msgSignInFailed)
		return
	}
	writeJSON(w, r, http.StatusOK, signInResponse{Token: token, Message: msgSignedIn})
}

// handleSignOut serves POST /api/v1/user/signout. The presented token stays
// revoked until it would have expired.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if err := s.auth.SignOut(r.Context(), p); err != nil {
		writeError(w, r, err, msgSignOutFailed)
		return
	}
	writeMessage(w, r, http.StatusOK, msgSignedOut)
}
