package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// Messaging
	ErrEmptyParticipantID = fmt.Errorf("participant id is empty")
	ErrEmptyContent       = fmt.Errorf("message content is empty")
	ErrSelfConversation   = fmt.Errorf("sender and receiver are the same participant")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrNotReceiver        = fmt.Errorf("only the receiver may mark a message as read")

	// Store
	ErrStoreUnavailable = fmt.Errorf("message store unavailable")
	ErrMissingIndex     = fmt.Errorf("conversation index missing")

	// Accounts
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
