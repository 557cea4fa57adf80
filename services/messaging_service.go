//go:generate go run go.uber.org/mock/mockgen -source=messaging_service.go -destination=../mocks/mock_messaging_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"estate-chat/contract"
	"estate-chat/domain"
	"estate-chat/domain/event"
	"estate-chat/domain/search"
	"estate-chat/errors"
	"estate-chat/moderation"
	"estate-chat/observability"
	"estate-chat/repositories"
)

type IMessagingService interface {
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	GetConversation(ctx context.Context, cmd domain.GetConversationCommand) ([]domain.Message, error)
	UnreadCount(ctx context.Context, cmd domain.GetConversationCommand) (int, error)
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) (domain.Message, error)
	SearchMessages(ctx context.Context, userID, rawQuery string) ([]repositories.SearchHit, error)
	Subscribe(userID string, sink contract.EventSink) (func(), error)
}

// MessagingService implements the messaging operations of the marketplace:
// sending, reading back conversations, read receipts, history search, and
// realtime subscriptions. Persistence is synchronous; realtime delivery and
// search indexing happen after the write, through the published event.
type MessagingService struct {
	log               *slog.Logger
	validate          *validator.Validate
	moderator         moderation.Moderator
	messageRepository repositories.IMessageRepository
	searchRepository  repositories.ISearchRepository
	publisher         contract.IPublisher
	registry          contract.IRegistry
	monitoring        *observability.MonitoringManager
}

func NewMessagingService(
	log *slog.Logger,
	moderator moderation.Moderator,
	messageRepository repositories.IMessageRepository,
	searchRepository repositories.ISearchRepository,
	publisher contract.IPublisher,
	registry contract.IRegistry,
	monitoring *observability.MonitoringManager,
) *MessagingService {
	return &MessagingService{
		log:               log,
		validate:          validator.New(),
		moderator:         moderator,
		messageRepository: messageRepository,
		searchRepository:  searchRepository,
		publisher:         publisher,
		registry:          registry,
		monitoring:        monitoring,
	}
}

// SendMessage validates, censors, and durably stores a message, then
// publishes it to the realtime feed. The stored message is returned with its
// assigned identity. No retry happens here: on a store failure the caller
// decides, and nothing has been persisted.
func (s *MessagingService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if cmd.SenderID == "" || cmd.ReceiverID == "" {
		return domain.Message{}, errors.ErrEmptyParticipantID
	}
	if cmd.Content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if cmd.SenderID == cmd.ReceiverID {
		return domain.Message{}, errors.ErrSelfConversation
	}
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("invalid send command: %w", err)
	}

	conversationID, err := domain.DeriveConversationID(cmd.SenderID, cmd.ReceiverID)
	if err != nil {
		return domain.Message{}, err
	}

	censored, _ := s.moderator.Censor(cmd.Content)
	info := whatlanggo.Detect(censored)

	stored, err := s.messageRepository.Create(domain.Message{
		ConversationID: conversationID,
		SenderID:       cmd.SenderID,
		ReceiverID:     cmd.ReceiverID,
		Content:        censored,
		Lang:           info.Lang.Iso6391(),
		IsRead:         false,
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.monitoring.MessageSent()
	s.publisher.Publish(event.MessageSent{
		ID:             stored.ID,
		ConversationID: stored.ConversationID,
		SenderID:       stored.SenderID,
		ReceiverID:     stored.ReceiverID,
		Content:        stored.Content,
		Lang:           stored.Lang,
		SentAt:         stored.SentAt,
	})
	return stored, nil
}

// GetConversation returns the shared history of the two participants, oldest
// first, bounded by the store's page limit. A missing conversation index
// degrades to an empty history with a logged diagnostic: a broken index must
// not take the rest of the page down with it.
func (s *MessagingService) GetConversation(_ context.Context, cmd domain.GetConversationCommand) ([]domain.Message, error) {
	conversationID, err := domain.DeriveConversationID(cmd.SelfID, cmd.OtherID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepository.GetConversation(conversationID)
	if err != nil {
		if stderrors.Is(err, errors.ErrMissingIndex) {
			s.log.Warn("Conversation index missing, returning empty history",
				"conversation", conversationID,
				"hint", "run EnsureIndexes against this data directory")
			return []domain.Message{}, nil
		}
		return nil, err
	}
	return messages, nil
}

// UnreadCount reports how many messages of the conversation the caller has
// not read yet.
func (s *MessagingService) UnreadCount(_ context.Context, cmd domain.GetConversationCommand) (int, error) {
	conversationID, err := domain.DeriveConversationID(cmd.SelfID, cmd.OtherID)
	if err != nil {
		return 0, err
	}
	return s.messageRepository.CountUnread(conversationID, cmd.SelfID)
}

// MarkRead flips the read flag of one message on behalf of its receiver and
// notifies the sender's clients through the realtime feed.
func (s *MessagingService) MarkRead(_ context.Context, cmd domain.MarkReadCommand) (domain.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("invalid mark-read command: %w", err)
	}
	messageID, err := uuid.Parse(cmd.MessageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("invalid message id: %w", err)
	}

	updated, err := s.messageRepository.MarkRead(messageID, cmd.ReaderID)
	if err != nil {
		return domain.Message{}, err
	}

	s.publisher.Publish(event.MessageRead{
		ID:             updated.ID,
		ConversationID: updated.ConversationID,
		SenderID:       updated.SenderID,
		ReceiverID:     updated.ReceiverID,
		ReadAt:         time.Now().UTC(),
	})
	return updated, nil
}

// SearchMessages runs a full-text query over the caller's own history.
// The raw input supports search-box flags, e.g. "boiler --from <id> --limit 20".
func (s *MessagingService) SearchMessages(ctx context.Context, userID, rawQuery string) ([]repositories.SearchHit, error) {
	if userID == "" {
		return nil, errors.ErrEmptyParticipantID
	}

	query := search.NewQuery(rawQuery)
	if query.Terms == "" {
		return nil, nil
	}

	hits, err := s.searchRepository.Search(ctx, userID, query.Terms, query.Limit)
	if err != nil {
		return nil, err
	}

	if query.From != "" {
		hits = lo.Filter(hits, func(hit repositories.SearchHit, _ int) bool {
			return hit.SenderID == query.From
		})
	}
	return hits, nil
}

// Subscribe adds a filtered realtime listener for the user and returns its
// disposer.
func (s *MessagingService) Subscribe(userID string, sink contract.EventSink) (func(), error) {
	if userID == "" {
		return nil, errors.ErrEmptyParticipantID
	}
	return s.registry.Subscribe(userID, sink), nil
}
