/*
Package message contains the durable message log of the relay.

This file defines the Store interface consumed by the hub and the history
endpoint, plus its PostgreSQL implementation.
*/
package message

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dmchat/internal/pkg/randx"
)

// Store is the durable append-only log of messages, queryable by conversation pair.
type Store interface {
	// Append persists the message. It assigns the record's ID and Timestamp
	// (unless a timestamp is already set) before writing.
	Append(ctx context.Context, msg *Message) error

	// Conversation returns every persisted message exchanged between userA and
	// userB, in either direction, ordered by timestamp ascending.
	Conversation(ctx context.Context, userA, userB string) ([]Message, error)
}

// PGStore implements Store on top of a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by the given PostgreSQL pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Append persists one message record.
func (s *PGStore) Append(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = randx.MessageID()
	}
	if msg.Type == "" {
		msg.Type = TypeText
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, sender, receiver, content, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.Sender, msg.Receiver, msg.Content, string(msg.Type), msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// Conversation loads the full history between two identities, oldest first.
func (s *PGStore) Conversation(ctx context.Context, userA, userB string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender, receiver, content, type, created_at
		 FROM messages
		 WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		 ORDER BY created_at ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var msgType string

		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Receiver, &msg.Content, &msgType, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		msg.Type = Type(msgType)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversation rows: %w", err)
	}

	return messages, nil
}
