// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/auth"
)

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// Login exchanges admin credentials for a JWT. The token is returned in the
// body and set as an HttpOnly cookie so browsers can open the WebSocket.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrAuthDisabled):
		respondError(w, r, http.StatusBadRequest, ErrCodeAuthDisabled, "Authentication is disabled", nil)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Incorrect username or password", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to issue token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token.AccessToken,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	respondJSON(w, r, http.StatusOK, token, start)
}

// Me returns the authenticated caller.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Not authenticated", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{
		"username":  claims.Username,
		"role":      claims.Role,
		"auth_mode": h.auth.Mode(),
	}, time.Time{})
}
