package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"estate-chat/auth"
	"estate-chat/contract"
	"estate-chat/domain"
	"estate-chat/errors"
	"estate-chat/observability"
	"estate-chat/repositories"
)

type fakeMessaging struct {
	sent         []domain.SendMessageCommand
	conversation []domain.Message
	sendErr      error
	subscribeErr error
	subscribed   chan contract.EventSink
}

func (f *fakeMessaging) SendMessage(_ context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if f.sendErr != nil {
		return domain.Message{}, f.sendErr
	}
	f.sent = append(f.sent, cmd)
	conversationID, _ := domain.DeriveConversationID(cmd.SenderID, cmd.ReceiverID)
	return domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       cmd.SenderID,
		ReceiverID:     cmd.ReceiverID,
		Content:        cmd.Content,
		SentAt:         time.Now().UTC(),
	}, nil
}

func (f *fakeMessaging) GetConversation(context.Context, domain.GetConversationCommand) ([]domain.Message, error) {
	return f.conversation, nil
}

func (f *fakeMessaging) UnreadCount(context.Context, domain.GetConversationCommand) (int, error) {
	return len(f.conversation), nil
}

func (f *fakeMessaging) MarkRead(context.Context, domain.MarkReadCommand) (domain.Message, error) {
	return domain.Message{IsRead: true}, nil
}

func (f *fakeMessaging) SearchMessages(context.Context, string, string) ([]repositories.SearchHit, error) {
	return nil, nil
}

func (f *fakeMessaging) Subscribe(_ string, sink contract.EventSink) (func(), error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	if f.subscribed != nil {
		f.subscribed <- sink
	}
	return func() {}, nil
}

type fakeAccounts struct{}

func (fakeAccounts) Register(email, _ string) (string, error) {
	if email == "taken@example.com" {
		return "", errors.ErrUserAlreadyExists
	}
	return uuid.NewString(), nil
}

func (fakeAccounts) Login(_, password string) (string, error) {
	if password != "good" {
		return "", errors.ErrInvalidCredentials
	}
	return "signed-token", nil
}

type routerFixture struct {
	router    http.Handler
	messaging *fakeMessaging
	tokens    *auth.TokenManager
}

func newRouterFixture() routerFixture {
	messaging := &fakeMessaging{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	router := NewRouter(slog.Default(), messaging, fakeAccounts{}, tokens, observability.NewMonitoringManager())
	return routerFixture{router: router, messaging: messaging, tokens: tokens}
}

func (f routerFixture) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.tokens.Generate(userID, []string{"user"})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_Send_Message_Requires_Auth(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()

	body := bytes.NewBufferString(`{"receiver_id":"bob","content":"hello"}`)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/messages", body))

	req.Equal(http.StatusUnauthorized, recorder.Code)
}

func TestRouter_Send_Message_Uses_Token_Identity(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()

	body := bytes.NewBufferString(`{"receiver_id":"bob","content":"hello"}`)
	request := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	request.Header.Set("Authorization", fixture.bearer(t, "alice"))
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	req.Equal(http.StatusCreated, recorder.Code)
	req.Len(fixture.messaging.sent, 1)
	// The sender comes from the token, never from the payload
	req.Equal("alice", fixture.messaging.sent[0].SenderID)
}

func TestRouter_Send_Message_Maps_Domain_Errors(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()
	fixture.messaging.sendErr = errors.ErrSelfConversation

	body := bytes.NewBufferString(`{"receiver_id":"alice","content":"hello"}`)
	request := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	request.Header.Set("Authorization", fixture.bearer(t, "alice"))
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	req.Equal(http.StatusBadRequest, recorder.Code)
}

func TestRouter_Get_Conversation(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()
	fixture.messaging.conversation = []domain.Message{
		{ID: uuid.New(), SenderID: "bob", ReceiverID: "alice", Content: "hi"},
	}

	request := httptest.NewRequest(http.MethodGet, "/api/conversations/bob", nil)
	request.Header.Set("Authorization", fixture.bearer(t, "alice"))
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	req.Equal(http.StatusOK, recorder.Code)

	var payload struct {
		Messages []domain.Message `json:"messages"`
	}
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &payload))
	req.Len(payload.Messages, 1)
	req.Equal("hi", payload.Messages[0].Content)
}

func TestRouter_Login(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"good"}`)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth/login", body))
	req.Equal(http.StatusOK, recorder.Code)

	body = bytes.NewBufferString(`{"email":"alice@example.com","password":"bad"}`)
	recorder = httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth/login", body))
	req.Equal(http.StatusUnauthorized, recorder.Code)
}

func TestRouter_Register_Conflict(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()

	body := bytes.NewBufferString(`{"email":"taken@example.com","password":"Str0ng!Passw0rd"}`)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth/register", body))

	req.Equal(http.StatusConflict, recorder.Code)
}

func TestRouter_Healthz(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()

	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	req.Equal(http.StatusOK, recorder.Code)
}
