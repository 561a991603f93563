// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are ping and subscribe only.
	maxMessageSize = 1024

	sendQueueSize  = 64
	replyQueueSize = 8

	// maxProtocolStrikes invalid inbound frames close the connection.
	maxProtocolStrikes = 3
)

// Control message types. Event types are listed in hub.go.
const (
	MessageTypeSubscribe  = "subscribe"
	MessageTypeSubscribed = "subscribed"
	MessageTypeError      = "error"
)

// eventTypes are the broadcasts a client may subscribe to.
var eventTypes = map[string]struct{}{
	MessageTypeRotationCompleted: {},
	MessageTypeSimulationCreated: {},
	MessageTypeSimulationApplied: {},
}

// Frame is the wire form of every server-to-client message. Seq counts
// the events delivered to this connection, starting at 1, so a dashboard can
// tell it missed nothing since it connected. Control replies carry no Seq.
type Frame struct {
	Type   string    `json:"type"`
	Seq    uint64    `json:"seq,omitempty"`
	SentAt time.Time `json:"sent_at"`
	Data   any       `json:"data,omitempty"`
}

// clientMessage is the only shape a client may send.
type clientMessage struct {
	Type   string   `json:"type"`
	Events []string `json:"events,omitempty"`
}

var clientIDCounter atomic.Uint64

// Client is a single dashboard connection.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn

	// send carries hub broadcasts and is closed by the hub.
	send chan Message
	// reply carries control answers from the read pump. It is never closed.
	reply chan Frame

	// events is the subscription filter. Nil means every event.
	events atomic.Pointer[map[string]struct{}]

	seq     uint64
	strikes int
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    clientIDCounter.Add(1),
		hub:   hub,
		conn:  conn,
		send:  make(chan Message, sendQueueSize),
		reply: make(chan Frame, replyQueueSize),
	}
}

// ID returns the client's broadcast order key.
func (c *Client) ID() uint64 {
	return c.id
}

// Wants reports whether the client subscribed to messageType.
func (c *Client) Wants(messageType string) bool {
	filter := c.events.Load()
	if filter == nil {
		return true
	}
	_, ok := (*filter)[messageType]
	return ok
}

func (c *Client) subscribe(events []string) ([]string, error) {
	if len(events) == 0 {
		c.events.Store(nil)
		return nil, nil
	}
	filter := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, known := eventTypes[e]; !known {
			return nil, &protocolError{"unknown event type " + e}
		}
		filter[e] = struct{}{}
	}
	c.events.Store(&filter)
	return events, nil
}

type protocolError struct{ msg string }

func (e *protocolError) Error() string { return e.msg }

// handle answers one inbound frame.
func (c *Client) handle(kind int, payload []byte) error {
	if kind != websocket.TextMessage {
		return &protocolError{"binary frames are not supported"}
	}
	var msg clientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return &protocolError{"malformed message"}
	}
	switch msg.Type {
	case MessageTypePing:
		c.queueReply(Frame{Type: MessageTypePong})
	case MessageTypeSubscribe:
		events, err := c.subscribe(msg.Events)
		if err != nil {
			return err
		}
		c.queueReply(Frame{Type: MessageTypeSubscribed, Data: map[string]any{"events": events}})
	default:
		return &protocolError{"unsupported message type " + msg.Type}
	}
	return nil
}

func (c *Client) queueReply(f Frame) {
	select {
	case c.reply <- f:
	default:
		metrics.WSErrors.WithLabelValues("reply_dropped").Inc()
	}
}

// readPump reads control frames until the peer leaves or exceeds the
// strike limit, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket closed")
			}
			return
		}

		err = c.handle(kind, payload)
		if err == nil {
			continue
		}
		c.strikes++
		metrics.WSErrors.WithLabelValues("protocol").Inc()
		if c.strikes >= maxProtocolStrikes {
			logging.Warn().Uint64("client_id", c.id).Int("strikes", c.strikes).Msg("Closing websocket after invalid messages")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many invalid messages"),
				time.Now().Add(writeWait))
			return
		}
		c.queueReply(Frame{Type: MessageTypeError, Data: map[string]string{"message": err.Error()}})
	}
}

// writePump is the only writer of data frames. It tags events with the
// connection's sequence number and pings the peer every pingPeriod.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.seq++
			if !c.write(Frame{Type: message.Type, Seq: c.seq, Data: message.Data}) {
				return
			}

		case f := <-c.reply:
			if !c.write(f) {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(f Frame) bool {
	f.SentAt = time.Now().UTC()
	payload, err := json.Marshal(f)
	if err != nil {
		metrics.WSErrors.WithLabelValues("encode").Inc()
		logging.Error().Err(err).Str("message_type", f.Type).Msg("Failed to encode websocket frame")
		return true
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
		return false
	}
	return true
}

// Start runs the client's pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
