package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"estate-chat/domain"
	"estate-chat/errors"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustConversationID(t *testing.T, a, b string) domain.ConversationID {
	t.Helper()
	conversationID, err := domain.DeriveConversationID(a, b)
	require.NoError(t, err)
	return conversationID
}

func Test_Create_And_Get_Sorted_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	req.NoError(repository.EnsureIndexes())

	conversationID := mustConversationID(t, "alice", "bob")
	at := time.Now().UTC()

	// Given messages stored out of chronological order
	for _, offset := range []time.Duration{2 * time.Minute, 0, 1 * time.Minute} {
		_, err := repository.Create(domain.Message{
			ConversationID: conversationID,
			SenderID:       "alice",
			ReceiverID:     "bob",
			Content:        fmt.Sprintf("offset %v", offset),
			SentAt:         at.Add(offset),
		})
		req.NoError(err)
	}

	// When fetching the conversation
	messages, err := repository.GetConversation(conversationID)
	req.NoError(err)

	// Then the messages come back oldest first
	req.Len(messages, 3)
	req.True(messages[0].SentAt.Before(messages[1].SentAt))
	req.True(messages[1].SentAt.Before(messages[2].SentAt))
}

func Test_Get_Conversation_Does_Not_Leak_Other_Conversations(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	req.NoError(repository.EnsureIndexes())

	conversationID := mustConversationID(t, "alice", "bob")
	otherID := mustConversationID(t, "alice", "clara")

	_, err := repository.Create(domain.Message{
		ConversationID: conversationID,
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        "for bob",
	})
	req.NoError(err)
	_, err = repository.Create(domain.Message{
		ConversationID: otherID,
		SenderID:       "alice",
		ReceiverID:     "clara",
		Content:        "for clara",
	})
	req.NoError(err)

	messages, err := repository.GetConversation(conversationID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for bob", messages[0].Content)
}

func Test_Get_Conversation_Limit(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(newTestDB(t), slog.Default(), &limit)
	req.NoError(repository.EnsureIndexes())

	conversationID := mustConversationID(t, "alice", "bob")
	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err := repository.Create(domain.Message{
			ConversationID: conversationID,
			SenderID:       "alice",
			ReceiverID:     "bob",
			Content:        fmt.Sprintf("message %d", i),
			SentAt:         at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}

	messages, err := repository.GetConversation(conversationID)
	req.NoError(err)
	req.Len(messages, limit)
}

func Test_Get_Conversation_Missing_Index(t *testing.T) {
	req := require.New(t)
	// EnsureIndexes deliberately not called
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	_, err := repository.GetConversation(mustConversationID(t, "alice", "bob"))
	req.ErrorIs(err, errors.ErrMissingIndex)
}

func Test_Empty_Conversation_Returns_No_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	req.NoError(repository.EnsureIndexes())

	messages, err := repository.GetConversation(mustConversationID(t, "alice", "bob"))
	req.NoError(err)
	req.Empty(messages)
}

func Test_MarkRead_Only_By_Receiver(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	req.NoError(repository.EnsureIndexes())

	stored, err := repository.Create(domain.Message{
		ConversationID: mustConversationID(t, "alice", "bob"),
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        "unread",
	})
	req.NoError(err)

	// The sender cannot acknowledge their own message
	_, err = repository.MarkRead(stored.ID, "alice")
	req.ErrorIs(err, errors.ErrNotReceiver)

	// The receiver can
	updated, err := repository.MarkRead(stored.ID, "bob")
	req.NoError(err)
	req.True(updated.IsRead)

	// And doing it twice changes nothing
	again, err := repository.MarkRead(stored.ID, "bob")
	req.NoError(err)
	req.True(again.IsRead)

	messages, err := repository.GetConversation(stored.ConversationID)
	req.NoError(err)
	req.Len(messages, 1)
	req.True(messages[0].IsRead)
}

func Test_MarkRead_Unknown_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	req.NoError(repository.EnsureIndexes())

	_, err := repository.MarkRead(uuid.New(), "bob")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_CountUnread_Per_Receiver(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	req.NoError(repository.EnsureIndexes())

	conversationID := mustConversationID(t, "alice", "bob")
	at := time.Now().UTC()

	first, err := repository.Create(domain.Message{
		ConversationID: conversationID,
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        "one",
		SentAt:         at,
	})
	req.NoError(err)
	_, err = repository.Create(domain.Message{
		ConversationID: conversationID,
		SenderID:       "alice",
		ReceiverID:     "bob",
		Content:        "two",
		SentAt:         at.Add(time.Minute),
	})
	req.NoError(err)
	_, err = repository.Create(domain.Message{
		ConversationID: conversationID,
		SenderID:       "bob",
		ReceiverID:     "alice",
		Content:        "reply",
		SentAt:         at.Add(2 * time.Minute),
	})
	req.NoError(err)

	// Bob has two unread, Alice one
	count, err := repository.CountUnread(conversationID, "bob")
	req.NoError(err)
	req.Equal(2, count)

	count, err = repository.CountUnread(conversationID, "alice")
	req.NoError(err)
	req.Equal(1, count)

	// Reading one of them lowers Bob's badge
	_, err = repository.MarkRead(first.ID, "bob")
	req.NoError(err)

	count, err = repository.CountUnread(conversationID, "bob")
	req.NoError(err)
	req.Equal(1, count)
}
