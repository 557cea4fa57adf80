package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"estate-chat/domain"
	"estate-chat/domain/event"
)

func sentEvent(content string, at time.Time) event.MessageSent {
	conversationID, _ := domain.DeriveConversationID("alice", "bob")
	return event.MessageSent{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        content,
		SentAt:         at,
	}
}

func Test_Timeline_Orders_Out_Of_Order_Pushes(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")
	at := time.Now().UTC()

	second := sentEvent("second", at.Add(time.Minute))
	first := sentEvent("first", at)

	// Pushes arrive newest first
	timeline.Consume(second)
	timeline.Consume(first)

	messages := timeline.Messages()
	req.Len(messages, 2)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
}

func Test_Timeline_Deduplicates_Replayed_Pushes(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")

	evt := sentEvent("hello", time.Now().UTC())
	timeline.Consume(evt)
	timeline.Consume(evt)

	req.Len(timeline.Messages(), 1)
}

func Test_Timeline_Applies_Read_Receipts(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice")

	evt := sentEvent("hello", time.Now().UTC())
	timeline.Consume(evt)
	timeline.Consume(event.MessageRead{
		ID:             evt.ID,
		ConversationID: evt.ConversationID,
		SenderID:       evt.SenderID,
		ReceiverID:     evt.ReceiverID,
		ReadAt:         time.Now().UTC(),
	})

	messages := timeline.Messages()
	req.Len(messages, 1)
	req.True(messages[0].IsRead)
}

func Test_Timeline_Reconcile_Replaces_View(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")
	at := time.Now().UTC()

	timeline.Consume(sentEvent("stale push", at))

	conversationID, _ := domain.DeriveConversationID("alice", "bob")
	history := []domain.Message{
		{ID: uuid.New(), ConversationID: conversationID, SenderID: "alice", ReceiverID: "bob", Content: "authoritative", SentAt: at},
	}
	timeline.Reconcile(history)

	messages := timeline.Messages()
	req.Len(messages, 1)
	req.Equal("authoritative", messages[0].Content)
}
