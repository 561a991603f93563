// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

// Handler upgrades HTTP requests and attaches them to a hub.
type Handler struct {
	hub            *Hub
	allowedOrigins []string
}

// NewHandler creates an upgrade handler. An origin list containing "*"
// accepts any browser origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{hub: hub, allowedOrigins: allowedOrigins}
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkOrigin rejects requests without an Origin header; browsers always
// send one on WebSocket handshakes.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitize(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

func sanitize(s string) string {
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
