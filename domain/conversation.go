package domain

import (
	"strings"

	"estate-chat/errors"
)

// ConversationID groups every message exchanged between exactly two
// participants, regardless of who sent which message.
type ConversationID string

// conversationSeparator joins the two participant IDs. Participant IDs are
// UUIDs in this system, so the separator cannot occur inside them.
const conversationSeparator = ":"

// DeriveConversationID maps an unordered pair of participant IDs to a single
// stable key: the two IDs sorted lexicographically and joined by the
// separator. DeriveConversationID(a, b) == DeriveConversationID(b, a) holds
// for all inputs, which is what lets both sides of a conversation read and
// write the same history.
func DeriveConversationID(a, b string) (ConversationID, error) {
	if a == "" || b == "" {
		return "", errors.ErrEmptyParticipantID
	}
	if b < a {
		a, b = b, a
	}
	return ConversationID(a + conversationSeparator + b), nil
}

// Participants returns the two participant IDs encoded in the key,
// in lexicographic order.
func (c ConversationID) Participants() (string, string) {
	parts := strings.SplitN(string(c), conversationSeparator, 2)
	if len(parts) != 2 {
		return string(c), ""
	}
	return parts[0], parts[1]
}
