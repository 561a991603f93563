// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 16 << 10

// validateRequest runs struct validation and writes a 400 on failure.
func validateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, verr.Error(),
		map[string]any{"fields": verr.Fields}, nil)
	return false
}

// decodeJSON reads a bounded JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "Invalid JSON body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			msg = "Request body is required"
		case errors.As(err, &maxErr):
			msg = "Request body too large"
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, msg, nil)
		return false
	}
	return validateRequest(w, r, v)
}
