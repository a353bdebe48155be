// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth issues and verifies session tokens and manages sign-up,
// sign-in and sign-out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/ManuGH/vidfetch/internal/metrics"
	"github.com/ManuGH/vidfetch/internal/users"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 10

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

// Verifier validates a presented session token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// UserStore is the persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (users.User, error)
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// Service implements Authenticator and Verifier.
type Service struct {
	users   UserStore
	signer  *Signer
	revoked *RevocationStore
	cost    int
}

// NewService wires the user store, token signer and revocation store.
func NewService(store UserStore, signer *Signer, revoked *RevocationStore) *Service {
	return &Service{users: store, signer: signer, revoked: revoked, cost: BcryptCost}
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		metrics.IncAuthEvent("signup", resultOf(err))
		return err
	}
	metrics.IncAuthEvent("signup", "ok")
	log.FromContext(ctx).Info().Str(log.FieldUserID, u.ID).Str(log.FieldEvent, "auth.signup").Msg("user signed up")
	return nil
}

// SignIn implements Authenticator.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.IncAuthEvent("signin", resultOf(err))
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.IncAuthEvent("signin", "wrong_password")
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrWrongPassword
		}
		return "", fmt.Errorf("compare password: %w", err)
	}
	token, _, err := s.signer.Issue(u.ID, u.Email)
	if err != nil {
		metrics.IncAuthEvent("signin", "error")
		return "", err
	}
	metrics.IncAuthEvent("signin", "ok")
	log.FromContext(ctx).Info().Str(log.FieldUserID, u.ID).Str(log.FieldEvent, "auth.signin").Msg("user signed in")
	return token, nil
}

// Verify implements Verifier. A revocation lookup failure is returned as is
// so the caller can fail closed.
func (s *Service) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		metrics.IncAuthEvent("verify", resultOf(err))
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		metrics.IncAuthEvent("verify", "error")
		return nil, err
	}
	if revoked {
		metrics.IncAuthEvent("verify", "revoked")
		return nil, ErrTokenRevoked
	}
	return &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the principal's token for the rest of its lifetime.
func (s *Service) SignOut(ctx context.Context, p *Principal) error {
	if p == nil {
		return ErrTokenMissing
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		metrics.IncAuthEvent("signout", "error")
		return err
	}
	metrics.IncAuthEvent("signout", "ok")
	log.FromContext(ctx).Info().Str(log.FieldUserID, p.UserID).Str(log.FieldEvent, "auth.signout").Msg("user signed out")
	return nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, users.ErrUserExists):
		return "exists"
	case errors.Is(err, users.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenInvalid):
		return "invalid"
	default:
		return "error"
	}
}
