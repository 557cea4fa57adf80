//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"estate-chat/domain"
	"estate-chat/errors"
)

type IMessageRepository interface {
	Create(message domain.Message) (domain.Message, error)
	GetConversation(conversationID domain.ConversationID) ([]domain.Message, error)
	MarkRead(messageID uuid.UUID, readerID string) (domain.Message, error)
	CountUnread(conversationID domain.ConversationID, receiverID string) (int, error)
	EnsureIndexes() error
}

// conversationIndexKey marks that the conversation keyspace of this database
// has been provisioned. History reads refuse to scan without it, so a store
// opened against an unprovisioned or stale data directory fails with a typed
// error instead of silently returning partial results.
const conversationIndexKey = "meta:index:conversation"

const conversationIndexVersion = "v1"

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the stored shape of a message document.
type DiskMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
	Lang           string `json:"lang,omitempty"`
	IsRead         bool   `json:"is_read"`
	SentAt         int64  `json:"sent_at"` // unix nanos
}

// messageKey formats the primary key as "msg:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func messageKey(conversationID domain.ConversationID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, at.UnixNano(), id))
}

// aliasKey maps a bare message ID to its primary key, for read-flag updates.
func aliasKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

// EnsureIndexes provisions the conversation keyspace marker. Deployment runs
// this once after opening the database; GetConversation treats its absence as
// the missing-index failure mode.
func (m MessageRepository) EnsureIndexes() error {
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(conversationIndexKey), []byte(conversationIndexVersion))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// Create assigns the message its identity and persists it, returning the
// stored message. The write installs both the primary record and the id
// alias in a single transaction; either both land or neither does.
func (m MessageRepository) Create(message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}

	key := messageKey(message.ConversationID, message.SentAt, message.ID)
	bytes, err := json.Marshal(lo.ToPtr(fromMessage(message)))
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(aliasKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return message, nil
}

// GetConversation retrieves the messages of one conversation using a prefix
// scan, oldest first. Thanks to the padded timestamp in the key, messages are
// naturally sorted by send time regardless of insertion order. The scan is
// bounded by the configured limitMessages; older history beyond the bound is
// not returned.
//
// Returns errors.ErrMissingIndex when the conversation keyspace marker is
// absent; the caller decides whether that degrades or propagates.
func (m MessageRepository) GetConversation(conversationID domain.ConversationID) ([]domain.Message, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(conversationIndexKey)); err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrMissingIndex
			}
			return err
		}

		prefix := []byte(fmt.Sprintf("msg:%s:", conversationID))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == errors.ErrMissingIndex {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		var disk DiskMessage
		if err = json.Unmarshal(b, &disk); err != nil {
			return nil, err
		}
		message, err := toMessage(disk)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// MarkRead flips the read flag of a stored message. Only the receiver may do
// so; everything else about the record stays immutable. The primary key embeds
// the send time, so the update rewrites the record in place under its
// original key.
func (m MessageRepository) MarkRead(messageID uuid.UUID, readerID string) (domain.Message, error) {
	var updated domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		aliasItem, err := txn.Get(aliasKey(messageID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrMessageNotFound
			}
			return err
		}
		primaryKey, err := aliasItem.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(primaryKey)
		if err != nil {
			return err
		}
		var disk DiskMessage
		err = item.Value(func(value []byte) error {
			return json.Unmarshal(value, &disk)
		})
		if err != nil {
			return err
		}

		if disk.ReceiverID != readerID {
			return errors.ErrNotReceiver
		}
		if disk.IsRead {
			updated, err = toMessage(disk)
			return err
		}

		disk.IsRead = true
		bytes, err := json.Marshal(disk)
		if err != nil {
			return err
		}
		if err = txn.Set(primaryKey, bytes); err != nil {
			return err
		}
		updated, err = toMessage(disk)
		return err
	})
	if err != nil {
		if err == errors.ErrMessageNotFound || err == errors.ErrNotReceiver {
			return domain.Message{}, err
		}
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return updated, nil
}

// CountUnread counts the messages of a conversation the given receiver has
// not read yet. Used by the conversation listing to badge unread counts.
func (m MessageRepository) CountUnread(conversationID domain.ConversationID, receiverID string) (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", conversationID))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var disk DiskMessage
				if err := json.Unmarshal(value, &disk); err != nil {
					return err
				}
				if !disk.IsRead && disk.ReceiverID == receiverID {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return count, nil
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:             message.ID.String(),
		ConversationID: string(message.ConversationID),
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		Content:        message.Content,
		Lang:           message.Lang,
		IsRead:         message.IsRead,
		SentAt:         message.SentAt.UnixNano(),
	}
}

func toMessage(disk DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:             parsedID,
		ConversationID: domain.ConversationID(disk.ConversationID),
		SenderID:       disk.SenderID,
		ReceiverID:     disk.ReceiverID,
		Content:        disk.Content,
		Lang:           disk.Lang,
		IsRead:         disk.IsRead,
		SentAt:         time.Unix(0, disk.SentAt).UTC(),
	}, nil
}
