package storage

import (
	"context"
	"log/slog"

	"estate-chat/domain"
	"estate-chat/domain/event"
	"estate-chat/repositories"
)

// SearchSink feeds the full-text index from the realtime pipeline. Indexing
// is asynchronous by design: the primary write has already happened when the
// event reaches the sink, and a failed indexing only degrades search, never
// delivery.
type SearchSink struct {
	searchRepository repositories.ISearchRepository
	log              *slog.Logger
}

func NewSearchSink(searchRepository repositories.ISearchRepository, log *slog.Logger) *SearchSink {
	return &SearchSink{searchRepository: searchRepository, log: log}
}

func (s *SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		return s.searchRepository.Index(domain.Message{
			ID:             evt.ID,
			ConversationID: evt.ConversationID,
			SenderID:       evt.SenderID,
			ReceiverID:     evt.ReceiverID,
			Content:        evt.Content,
			Lang:           evt.Lang,
			SentAt:         evt.SentAt,
		})
	}
	return nil
}
