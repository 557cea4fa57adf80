package domain

// SendMessageCommand carries a validated request to send a direct message.
// SenderID is always resolved from the authenticated caller, never from the
// request body.
type SendMessageCommand struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required"`
	Content    string `validate:"required,max=4000"`
}

type GetConversationCommand struct {
	SelfID  string `validate:"required"`
	OtherID string `validate:"required"`
}

type MarkReadCommand struct {
	MessageID string `validate:"required,uuid"`
	ReaderID  string `validate:"required"`
}
