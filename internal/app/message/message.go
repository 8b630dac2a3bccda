/*
Package message contains the durable message log of the relay.

This file defines the Message record and its validation rules. Records are
append-only: the relay writes and reads them but never mutates or deletes one.
*/
package message

import (
	"time"

	"dmchat/internal/pkg/errs"
)

// Type classifies the message content.
type Type string

const (
	// TypeText is a plain text message.
	TypeText Type = "text"

	// TypeImage is an image message; Content carries the storage object key.
	TypeImage Type = "image"
)

// MaxContentBytes is the maximum allowed size (in bytes) for message content.
const MaxContentBytes = 5000

// Message is one persisted direct message between two identities.
// It is immutable once written.
type Message struct {
	// ID is the server-assigned UUID of the record.
	ID string `json:"id"`

	// Sender and Receiver are the identity keys (emails) of the two parties.
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`

	// Content is the message text, or the storage object key for image messages.
	Content string `json:"content"`

	// Type is "text" or "image". Empty input defaults to text.
	Type Type `json:"type"`

	// Timestamp is set at persistence time.
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the fields a client controls before the record is persisted.
// It normalizes an empty Type to TypeText, matching the wire contract where
// the type field is optional.
func (m *Message) Validate() *errs.CustomError {
	if m.Sender == "" || m.Receiver == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if m.Type == "" {
		m.Type = TypeText
	}
	if m.Type != TypeText && m.Type != TypeImage {
		return errs.NewError(errs.ErrMessageTypeInvalid)
	}

	if len(m.Content) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	return nil
}
