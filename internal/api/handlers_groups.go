// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
)

// GroupValidation is the response of the group validation endpoint.
type GroupValidation struct {
	Valid  bool                   `json:"valid"`
	Groups []rotation.GroupIssues `json:"groups"`
}

// GroupsList returns the configured collection groups in evaluation order.
func (h *Handler) GroupsList(w http.ResponseWriter, r *http.Request) {
	groups := h.rotator.Groups()
	if groups == nil {
		groups = []rotation.CollectionGroup{}
	}
	respondList(w, r, groups, len(groups), time.Now())
}

// GroupsValidate checks every group for duplicate members, malformed date
// windows and collections missing from the media server.
func (h *Handler) GroupsValidate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	issues, err := h.rotator.ValidateGroups(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	valid := true
	for _, i := range issues {
		if i.HasIssues() {
			valid = false
			break
		}
	}
	respondJSON(w, r, http.StatusOK, GroupValidation{Valid: valid, Groups: issues}, start)
}
