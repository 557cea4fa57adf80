//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"

	"estate-chat/domain"
)

type ISearchRepository interface {
	Index(message domain.Message) error
	Search(ctx context.Context, userID, terms string, limit int) ([]SearchHit, error)
}

// SearchHit is one full-text match in a user's message history.
type SearchHit struct {
	MessageID      string
	ConversationID domain.ConversationID
	SenderID       string
	Content        string
	SentAt         time.Time
}

// SearchRepository maintains a Bluge full-text index next to the primary
// store. The index is derivative: losing it never loses messages, and it can
// be rebuilt from a conversation scan.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

// Index adds or replaces the searchable projection of a stored message.
// Participants are indexed as keywords so a search can be scoped to the
// caller without leaking other users' conversations.
func (s *SearchRepository) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("conversation", string(message.ConversationID)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", message.SenderID).StoreValue()).
		AddField(bluge.NewKeywordField("receiver", message.ReceiverID)).
		AddField(bluge.NewKeywordField("sent_at_ns", strconv.FormatInt(message.SentAt.UnixNano(), 10)).StoreValue())

	if err := s.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s failed: %w", message.ID, err)
	}
	return nil
}

// Search runs a full-text query over the caller's own message history,
// best matches first. The participant clause restricts results to
// conversations the caller is part of.
func (s *SearchRepository) Search(ctx context.Context, userID, terms string, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader failed: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Failed to close index reader", "err", err)
		}
	}()

	participant := bluge.NewBooleanQuery().
		AddShould(bluge.NewTermQuery(userID).SetField("sender")).
		AddShould(bluge.NewTermQuery(userID).SetField("receiver")).
		SetMinShould(1)

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(participant)

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterating search results failed: %w", err)
		}
		if match == nil {
			break
		}

		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "content":
				hit.Content = string(value)
			case "conversation":
				hit.ConversationID = domain.ConversationID(value)
			case "sender":
				hit.SenderID = string(value)
			case "sent_at_ns":
				if ns, err := strconv.ParseInt(string(value), 10, 64); err == nil {
					hit.SentAt = time.Unix(0, ns).UTC()
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
