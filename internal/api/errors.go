// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/rotation"
	"github.com/tomtom215/marquee/internal/service"
	"github.com/tomtom215/marquee/internal/simulation"
)

// respondServiceError maps errors from the rotation service onto HTTP
// statuses and error codes.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var windowErr *rotation.WindowError

	switch {
	case errors.Is(err, simulation.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Simulation not found", err)
	case errors.Is(err, simulation.ErrAlreadyApplied):
		respondError(w, r, http.StatusConflict, ErrCodeAlreadyApplied, "Simulation has already been applied", err)
	case errors.As(err, &windowErr):
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, windowErr.Error(),
			map[string]any{"group": windowErr.Group, "field": windowErr.Field, "value": windowErr.Value}, err)
	case errors.Is(err, rotation.ErrInvalidGroup):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Media server is temporarily unavailable", err)
	case errors.Is(err, service.ErrMediaServer):
		respondError(w, r, http.StatusBadGateway, ErrCodeMediaServer, "Media server request failed", err)
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}
