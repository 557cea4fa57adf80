// Package projection builds local conversation timelines from observed
// events. Handles ordering and deduplication so a client can merge realtime
// pushes with history reads. Does not emit events or interact with UI
// directly.
package projection

import (
	"sort"

	"github.com/google/uuid"

	"estate-chat/domain"
	"estate-chat/domain/event"
)

// Timeline holds the local view of one conversation. Realtime pushes carry no
// delivery guarantee and may repeat after a reconnect, so the timeline
// deduplicates by message ID and keeps messages sorted by send time; a full
// history read through Reconcile remains the source of truth.
type Timeline struct {
	Owner    string
	messages []domain.Message
	seen     map[uuid.UUID]struct{}
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{
		Owner: owner,
		seen:  make(map[uuid.UUID]struct{}),
	}
}

// Consume applies one observed event to the local view.
func (t *Timeline) Consume(e event.DomainEvent) {
	switch evt := e.(type) {
	case event.MessageSent:
		t.insert(fromEvent(evt))
	case event.MessageRead:
		for i := range t.messages {
			if t.messages[i].ID == evt.ID {
				t.messages[i].IsRead = true
			}
		}
	}
}

// Reconcile replaces the local view with an authoritative history read.
func (t *Timeline) Reconcile(messages []domain.Message) {
	t.messages = nil
	t.seen = make(map[uuid.UUID]struct{})
	for _, m := range messages {
		t.insert(m)
	}
}

// Messages returns the deduplicated view, oldest first.
func (t *Timeline) Messages() []domain.Message {
	return t.messages
}

func (t *Timeline) insert(m domain.Message) {
	if _, dup := t.seen[m.ID]; dup {
		return
	}
	t.seen[m.ID] = struct{}{}
	t.messages = append(t.messages, m)
	sort.SliceStable(t.messages, func(i, j int) bool {
		return t.messages[i].SentAt.Before(t.messages[j].SentAt)
	})
}

func fromEvent(evt event.MessageSent) domain.Message {
	return domain.Message{
		ID:             evt.ID,
		ConversationID: evt.ConversationID,
		SenderID:       evt.SenderID,
		ReceiverID:     evt.ReceiverID,
		Content:        evt.Content,
		Lang:           evt.Lang,
		SentAt:         evt.SentAt,
	}
}
