// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
)

// Auth modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

// RoleAdmin is the only role; the admin account can do everything.
const RoleAdmin = "admin"

// AnonymousUser is reported when authentication is disabled.
const AnonymousUser = "anonymous"

var (
	// ErrAuthDisabled is returned by Login when auth_mode is none.
	ErrAuthDisabled = errors.New("authentication is not enabled")

	// ErrInvalidCredentials hides whether the username or password was wrong.
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// Token is a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Username    string    `json:"username"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Authenticator validates admin credentials and issues tokens.
type Authenticator struct {
	mode     string
	username string
	password string
	jwt      *JWTManager
}

// NewAuthenticator builds an authenticator from security settings.
func NewAuthenticator(cfg *config.SecurityConfig) (*Authenticator, error) {
	a := &Authenticator{mode: cfg.AuthMode, username: cfg.AdminUsername, password: cfg.AdminPassword}
	switch cfg.AuthMode {
	case ModeNone, "":
		a.mode = ModeNone
		return a, nil
	case ModeJWT:
		mgr, err := NewJWTManager(cfg.JWTSecret, cfg.SessionTimeout)
		if err != nil {
			return nil, err
		}
		a.jwt = mgr
		if !IsHashed(cfg.AdminPassword) {
			logging.Warn().Msg("Admin password is stored in plaintext; consider a bcrypt hash")
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}

// Enabled reports whether requests must carry a token.
func (a *Authenticator) Enabled() bool {
	return a.mode == ModeJWT
}

// Mode returns the configured auth mode.
func (a *Authenticator) Mode() string {
	return a.mode
}

// Login exchanges admin credentials for a token.
func (a *Authenticator) Login(username, password string) (*Token, error) {
	if !a.Enabled() {
		return nil, ErrAuthDisabled
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := VerifyPassword(password, a.password)
	if !userOK || !passOK {
		logging.Warn().Str("username", username).Msg("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	signed, expires, err := a.jwt.GenerateToken(username, RoleAdmin)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("username", username).Time("expires_at", expires).Msg("Admin logged in")
	return &Token{AccessToken: signed, TokenType: "bearer", Username: username, ExpiresAt: expires}, nil
}

// Validate checks a bearer token.
func (a *Authenticator) Validate(token string) (*Claims, error) {
	if !a.Enabled() {
		return &Claims{Username: AnonymousUser, Role: RoleAdmin}, nil
	}
	return a.jwt.ValidateToken(token)
}
