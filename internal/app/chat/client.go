/*
Package chat contains the core logic for routing realtime events between connected users.

This file defines the Client struct, representing an active WebSocket connection.
It manages the connection's lifecycle, the message communication loops (ReadPump
and WritePump), and interaction with the Hub.
*/
package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// sendChannelBuffer sizes the per-connection outbound queue.
	sendChannelBuffer = 256
)

// Client struct represents an active WebSocket connection.
type Client struct {
	// hub routes the events this connection produces.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// id uniquely identifies this connection (the roster's socketId field).
	id string

	// email is the identity most recently announced on this connection.
	// Written only by the ReadPump goroutine.
	email string

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(hub *Hub, wsConn *websocket.Conn) *Client {
	id := randx.SocketID()

	clientLogger := logx.Logger().With().
		Str("socket_id", id).
		Logger()

	return &Client{
		hub:    hub,
		conn:   wsConn,
		id:     id,
		send:   make(chan []byte, sendChannelBuffer),
		logger: clientLogger,
	}
}

// ID returns the connection's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Send marshals the event into a frame and queues it on the connection.
// It reports false when the outbound queue is full, dropping the frame:
// deliveries are best-effort and must never block the hub.
func (c *Client) Send(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling outbound payload.")
		return false
	}

	frameBytes, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling outbound frame.")
		return false
	}

	select {
	case c.send <- frameBytes:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", event).Msg("Client send channel full, dropping frame.")
		return false
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), frame parsing, and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (Client close/going away)")
			}
			break
		}

		c.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
// The hub starts the grace-period flow keyed by the identity this connection announced last.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Str("email", c.email).Msg("Client connection cleanup starting.")

	c.hub.Disconnect(c, c.email)

	if err := c.conn.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Client connection close error")
	}
}

// processInboundFrame parses one raw frame, tracks the identity the connection
// announces, and forwards the frame to the hub.
func (c *Client) processInboundFrame(frameBytes []byte) {
	var frame Frame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		c.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Client sent invalid JSON")
		return
	}

	c.trackIdentity(frame)

	c.hub.HandleFrame(c, frame)
}

// trackIdentity records the identity announced by connect-style events so the
// disconnect flow knows which presence entry this connection belonged to.
func (c *Client) trackIdentity(frame Frame) {
	switch frame.Event {
	case EventUserConnected:
		var payload ConnectPayload
		if err := json.Unmarshal(frame.Data, &payload); err == nil && payload.Email != "" {
			c.email = payload.Email
		}

	case EventJoinChat:
		var payload JoinChatPayload
		if err := json.Unmarshal(frame.Data, &payload); err == nil && payload.MyEmail != "" {
			c.email = payload.MyEmail
		}
	}
}

// WritePump handles writing frames from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frameBytes, ok := <-c.send:
			if !c.writeQueuedFrame(frameBytes, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame handles frames pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frameBytes []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frameBytes); err != nil {
		c.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
