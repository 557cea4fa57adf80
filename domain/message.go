// Package domain contains core concepts of the messaging system.
// This file defines the Message record exchanged between two marketplace users.
// Messages are immutable once sent, except for the read flag owned by the receiver.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a direct message between a buyer and an agent.
type Message struct {
	ID             uuid.UUID // unique identifier, assigned at creation
	ConversationID ConversationID
	SenderID       string
	ReceiverID     string
	Content        string
	Lang           string // ISO 639-1 code detected at send time, best effort
	IsRead         bool
	SentAt         time.Time
}
