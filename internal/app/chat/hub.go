/*
Package chat contains the core logic for routing realtime events between connected users.

This file defines the Hub struct, the central router of the relay. It translates
inbound connection events into presence registry calls, broadcasts roster
updates, performs targeted delivery of messages and typing indicators, and
drives the grace-period disconnect flow. All registry mutations and deliveries
triggered by inbound events pass through one Run loop, so roster broadcasts and
notifications go out in the order the triggering events were processed.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dmchat/internal/app/message"
	"dmchat/internal/app/presence"
	"dmchat/internal/pkg/logx"
)

const (
	// inboundChannelBuffer sizes the queue of inbound event frames.
	inboundChannelBuffer = 1024

	// persistTimeout bounds a single message append against the store.
	persistTimeout = 10 * time.Second
)

// inboundFrame pairs an event frame with the connection it arrived on.
type inboundFrame struct {
	peer  presence.Conn
	frame Frame
}

// closedConn describes a connection that went away, keyed by the identity most
// recently associated with it.
type closedConn struct {
	peer  presence.Conn
	email string
}

// delivery is a targeted send that re-enters the Run loop after an
// asynchronous persistence write completed.
type delivery struct {
	receiver string
	event    string
	data     json.RawMessage
}

// Hub routes events between the presence registry, the message store, and the
// set of live connections.
type Hub struct {
	registry *presence.Registry
	store    message.Store

	// grace is how long a disconnected identity survives in the registry
	// before an offline notice goes out.
	grace time.Duration

	// peers tracks every live connection by socket ID, including ones that
	// have not announced an identity yet. Only the Run goroutine touches it.
	peers map[string]presence.Conn

	inbound    chan inboundFrame
	register   chan presence.Conn
	unregister chan closedConn
	expired    chan presence.View
	deliveries chan delivery

	// stop signals the Run loop to terminate.
	stop chan struct{}

	// wg waits for the Run goroutine during shutdown.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs a Hub and starts its Run loop.
func NewHub(registry *presence.Registry, store message.Store, grace time.Duration) *Hub {
	h := &Hub{
		registry:   registry,
		store:      store,
		grace:      grace,
		peers:      make(map[string]presence.Conn),
		inbound:    make(chan inboundFrame, inboundChannelBuffer),
		register:   make(chan presence.Conn, 32),
		unregister: make(chan closedConn, 32),
		expired:    make(chan presence.View, 32),
		deliveries: make(chan delivery, inboundChannelBuffer),
		stop:       make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}

	h.wg.Add(1)
	go h.run()

	return h
}

// Register adds a live connection to the broadcast set.
func (h *Hub) Register(peer presence.Conn) {
	select {
	case h.register <- peer:
	case <-h.stop:
	}
}

// Disconnect reports that a connection closed. The email is the identity most
// recently associated with it, empty if it never announced one.
func (h *Hub) Disconnect(peer presence.Conn, email string) {
	select {
	case h.unregister <- closedConn{peer: peer, email: email}:
	case <-h.stop:
	}
}

// HandleFrame queues one inbound event frame for processing.
func (h *Hub) HandleFrame(peer presence.Conn, frame Frame) {
	select {
	case h.inbound <- inboundFrame{peer: peer, frame: frame}:
	default:
		h.logger.Warn().Str("event", frame.Event).Msg("Inbound event queue full, dropping frame.")
	}
}

// Shutdown stops the Run loop and waits for it to exit.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub event loop...")

	select {
	case <-h.stop:
	default:
		close(h.stop)
	}

	h.wg.Wait()

	h.logger.Info().Msg("Hub shutdown complete.")
}

// run is the single event loop of the hub.
func (h *Hub) run() {
	defer h.wg.Done()

	h.logger.Info().Msg("Hub event loop started.")

	for {
		select {
		case peer := <-h.register:
			h.peers[peer.ID()] = peer
			h.logger.Debug().Str("socket_id", peer.ID()).Int("total_conns", len(h.peers)).Msg("Connection registered.")

		case closed := <-h.unregister:
			h.handleDisconnect(closed)

		case in := <-h.inbound:
			h.dispatch(in.peer, in.frame)

		case removed := <-h.expired:
			h.handleExpiry(removed)

		case d := <-h.deliveries:
			h.deliver(d.receiver, d.event, d.data)

		case <-h.stop:
			h.logger.Info().Msg("Hub event loop stopped.")
			return
		}
	}
}

// dispatch routes one inbound frame to its event handler.
func (h *Hub) dispatch(peer presence.Conn, frame Frame) {
	switch frame.Event {
	case EventUserConnected:
		h.handleUserConnected(peer, frame.Data)

	case EventJoinChat:
		h.handleJoinChat(peer, frame.Data)

	case EventLeaveChat:
		h.handleLeaveChat(frame.Data)

	case EventSendMessage:
		h.handleSendMessage(frame.Data)

	case EventTyping, EventStopTyping:
		h.handleTyping(frame.Event, frame.Data)

	default:
		h.logger.Warn().Str("event", frame.Event).Msg("Client sent unsupported event.")
	}
}

// handleUserConnected upserts the identity, broadcasts the roster, and tells
// everyone else the user came online. The online notice is suppressed when the
// user is alone, matching what a fresh arrival would expect to see.
func (h *Hub) handleUserConnected(peer presence.Conn, data json.RawMessage) {
	var payload ConnectPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Email == "" {
		h.logger.Warn().Err(err).Msg("Client sent invalid user_connected payload.")
		return
	}

	h.registry.UpsertOnConnect(payload.Email, payload.Name, payload.Photo, peer)

	h.logger.Info().Str("email", payload.Email).Str("socket_id", peer.ID()).Msg("User connected.")

	h.broadcastRoster()

	if h.registry.Size() > 1 {
		h.broadcastExcept(peer.ID(), EventUserOnline, PresenceNotice{
			Name:  payload.Name,
			Email: payload.Email,
		})
	}
}

// handleJoinChat marks the sender Busy with the partner, broadcasts the
// roster, and notifies the partner's connection directly if there is one.
func (h *Hub) handleJoinChat(peer presence.Conn, data json.RawMessage) {
	var payload JoinChatPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MyEmail == "" {
		h.logger.Warn().Err(err).Msg("Client sent invalid join_chat payload.")
		return
	}

	h.registry.EnterChat(payload.MyEmail, payload.PartnerEmail, peer)

	h.broadcastRoster()

	partnerConn, ok := h.registry.Peer(payload.PartnerEmail)
	if !ok {
		return
	}

	senderName := ""
	if sender, found := h.registry.Lookup(payload.MyEmail); found {
		senderName = sender.Name
	}

	partnerConn.Send(EventIncomingChat, IncomingChatPayload{
		SenderEmail: payload.MyEmail,
		SenderName:  senderName,
	})
}

// handleLeaveChat returns the sender to Available. The event data is a bare
// email string.
func (h *Hub) handleLeaveChat(data json.RawMessage) {
	var email string
	if err := json.Unmarshal(data, &email); err != nil || email == "" {
		h.logger.Warn().Err(err).Msg("Client sent invalid leave_chat payload.")
		return
	}

	h.registry.LeaveChat(email)

	h.broadcastRoster()
}

// handleSendMessage validates the message and hands it to a persistence
// goroutine. The write must not block the event loop; delivery re-enters the
// loop through the deliveries channel once the record is durable, so a message
// is always persisted before delivery is attempted. Failures are logged and
// the delivery dropped; the sender is not informed either way.
func (h *Hub) handleSendMessage(data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.logger.Warn().Err(err).Msg("Client sent invalid send_message payload.")
		return
	}

	msg := &message.Message{
		Sender:   payload.Sender,
		Receiver: payload.Receiver,
		Content:  payload.Content,
		Type:     message.Type(payload.Type),
	}

	if customErr := msg.Validate(); customErr != nil {
		h.logger.Warn().
			Str("sender", payload.Sender).
			Str("error", customErr.Message).
			Msg("Rejected send_message payload.")
		return
	}

	go h.persistAndQueue(msg, data)
}

// persistAndQueue appends the message to the store and, once durable, queues
// the targeted delivery back onto the event loop.
func (h *Hub) persistAndQueue(msg *message.Message, data json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := h.store.Append(ctx, msg); err != nil {
		h.logger.Error().Err(err).
			Str("sender", msg.Sender).
			Str("receiver", msg.Receiver).
			Msg("Failed to persist message, delivery skipped.")
		return
	}

	select {
	case h.deliveries <- delivery{receiver: msg.Receiver, event: EventReceiveMessage, data: data}:
	case <-h.stop:
	}
}

// handleTyping forwards a typing indicator verbatim to the receiver's
// connection if online; otherwise it is dropped. Never persisted.
func (h *Hub) handleTyping(event string, data json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Receiver == "" {
		h.logger.Warn().Err(err).Str("event", event).Msg("Client sent invalid typing payload.")
		return
	}

	h.deliver(payload.Receiver, event, data)
}

// handleDisconnect removes the connection from the broadcast set and starts
// the grace timer for its identity. The registry ignores the schedule when the
// identity already reconnected on a newer connection.
func (h *Hub) handleDisconnect(closed closedConn) {
	delete(h.peers, closed.peer.ID())

	h.logger.Debug().
		Str("socket_id", closed.peer.ID()).
		Str("email", closed.email).
		Int("total_conns", len(h.peers)).
		Msg("Connection closed.")

	if closed.email == "" {
		return
	}

	h.registry.ScheduleRemoval(closed.email, closed.peer, h.grace, func(removed presence.View) {
		select {
		case h.expired <- removed:
		case <-h.stop:
		}
	})
}

// handleExpiry broadcasts the post-eviction roster and the offline notice.
// The notice is suppressed when nobody with an identity remains to read it.
func (h *Hub) handleExpiry(removed presence.View) {
	h.logger.Info().Str("email", removed.Email).Msg("User went offline.")

	h.broadcastRoster()

	if h.registry.Size() > 0 {
		h.broadcast(EventUserOffline, PresenceNotice{
			Name:  removed.Name,
			Email: removed.Email,
		})
	}
}

// deliver sends one event to the receiver's live connection, if any. A missing
// or disconnected receiver is a normal branch, not an error.
func (h *Hub) deliver(receiver, event string, data json.RawMessage) {
	peer, ok := h.registry.Peer(receiver)
	if !ok {
		return
	}

	if !peer.Send(event, data) {
		h.logger.Warn().
			Str("receiver", receiver).
			Str("event", event).
			Msg("Receiver send queue full, event dropped.")
	}
}

// broadcastRoster sends the full presence snapshot to every live connection.
func (h *Hub) broadcastRoster() {
	h.broadcast(EventUpdateUserList, h.registry.Snapshot())
}

// broadcast sends one event to every live connection.
func (h *Hub) broadcast(event string, payload any) {
	for _, peer := range h.peers {
		peer.Send(event, payload)
	}
}

// broadcastExcept sends one event to every live connection except the given socket.
func (h *Hub) broadcastExcept(socketID, event string, payload any) {
	for id, peer := range h.peers {
		if id == socketID {
			continue
		}
		peer.Send(event, payload)
	}
}
