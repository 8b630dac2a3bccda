/*
Package chat contains the core logic for routing realtime events between connected users.

This file defines the wire protocol: the frame envelope exchanged over the
WebSocket and the typed payloads of every inbound and outbound event.
*/
package chat

import "encoding/json"

// Inbound event names (client to server).
const (
	// EventUserConnected announces the identity behind a fresh connection.
	EventUserConnected = "user_connected"

	// EventJoinChat marks the sender Busy chatting with a partner.
	EventJoinChat = "join_chat"

	// EventLeaveChat returns the sender to Available. Its data is a bare
	// email string rather than an object.
	EventLeaveChat = "leave_chat"

	// EventSendMessage persists a direct message and delivers it if the
	// receiver is online.
	EventSendMessage = "send_message"

	// EventTyping and EventStopTyping are transient indicators forwarded to
	// the receiver when online, never persisted.
	EventTyping     = "typing"
	EventStopTyping = "stop_typing"
)

// Outbound event names (server to client).
const (
	// EventUpdateUserList carries the full roster snapshot to every connection.
	EventUpdateUserList = "update_user_list"

	// EventUserOnline and EventUserOffline are best-effort presence notices.
	EventUserOnline  = "user_online_notification"
	EventUserOffline = "user_offline_notification"

	// EventIncomingChat notifies a partner that someone opened a chat with them.
	EventIncomingChat = "incoming_chat"

	// EventReceiveMessage delivers a direct message; its data echoes the
	// inbound send_message payload.
	EventReceiveMessage = "receive_message"
)

// Frame is the envelope for every event crossing the WebSocket in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ConnectPayload is the data of a user_connected event.
type ConnectPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// JoinChatPayload is the data of a join_chat event.
type JoinChatPayload struct {
	MyEmail      string `json:"myEmail"`
	PartnerEmail string `json:"partnerEmail"`
}

// SendMessagePayload is the data of a send_message event. Type is optional
// and defaults to text.
type SendMessagePayload struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	Type     string `json:"type,omitempty"`
}

// TypingPayload is the data of typing and stop_typing events.
type TypingPayload struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

// PresenceNotice is the data of user_online_notification and
// user_offline_notification events.
type PresenceNotice struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IncomingChatPayload is the data of an incoming_chat event, delivered only to
// the chat partner's connection.
type IncomingChatPayload struct {
	SenderEmail string `json:"senderEmail"`
	SenderName  string `json:"senderName"`
}
