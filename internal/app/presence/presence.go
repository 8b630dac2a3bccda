/*
Package presence contains the core logic for tracking which users are online.

This file defines the data model of the registry: the connection abstraction,
the per-user status enum, and the entry/view types exchanged with the hub.
*/
package presence

// Status describes whether a user is free to be messaged or mid-conversation.
type Status string

const (
	// StatusAvailable means the user is online and not in an active chat.
	StatusAvailable Status = "Available"

	// StatusBusy means the user has joined a chat with a partner.
	StatusBusy Status = "Busy"
)

// Conn is the registry's view of one live connection. The concrete type is the
// hub's WebSocket client; tests substitute fakes.
type Conn interface {
	// ID returns the unique identifier of this connection.
	ID() string

	// Send queues one outbound event frame on the connection.
	// It reports whether the frame was accepted (false when the send queue is full or closed).
	Send(event string, payload any) bool
}

// entry is the live, mutable state for a single identity. It is only ever
// touched while holding the registry mutex.
type entry struct {
	email  string
	name   string
	avatar string

	status       Status
	chattingWith string

	// conn is the currently active connection, nil while the identity is
	// inside its disconnect grace window. At most one connection is live per
	// identity; a newer connection silently replaces an older one.
	conn Conn

	// removal is the pending grace timer, nil while the identity is connected.
	removal *removalTimer
}

// View is an immutable snapshot of one registry entry, safe to use outside the
// registry lock. Its JSON shape is the roster line sent to clients.
type View struct {
	SocketID     string `json:"socketId,omitempty"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Email        string `json:"email"`
	Status       Status `json:"status"`
	ChattingWith string `json:"chattingWith,omitempty"`
}

// view materializes a snapshot of the entry. Caller must hold the registry mutex.
func (e *entry) view() View {
	v := View{
		Name:         e.name,
		Avatar:       e.avatar,
		Email:        e.email,
		Status:       e.status,
		ChattingWith: e.chattingWith,
	}
	if e.conn != nil {
		v.SocketID = e.conn.ID()
	}
	return v
}
