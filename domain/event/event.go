package event

import (
	"time"

	"github.com/google/uuid"

	"estate-chat/domain"
)

// DomainEvent is anything observable on the realtime feed.
type DomainEvent interface {
	Conversation() domain.ConversationID
}

// ParticipantEvent is a DomainEvent addressed to the two sides of a
// conversation. The delivery filter only inspects these two IDs; it never
// looks at the payload.
type ParticipantEvent interface {
	DomainEvent
	Participants() (senderID, receiverID string)
}

// MessageSent is broadcast after a message has been durably stored.
type MessageSent struct {
	ID             uuid.UUID
	ConversationID domain.ConversationID
	SenderID       string
	ReceiverID     string
	Content        string
	Lang           string
	SentAt         time.Time
}

func (m MessageSent) Conversation() domain.ConversationID {
	return m.ConversationID
}

func (m MessageSent) Participants() (string, string) {
	return m.SenderID, m.ReceiverID
}

// MessageRead is broadcast when the receiver marks a message as read,
// so the sender's client can refresh its read receipts.
type MessageRead struct {
	ID             uuid.UUID
	ConversationID domain.ConversationID
	SenderID       string
	ReceiverID     string
	ReadAt         time.Time
}

func (m MessageRead) Conversation() domain.ConversationID {
	return m.ConversationID
}

func (m MessageRead) Participants() (string, string) {
	return m.SenderID, m.ReceiverID
}
