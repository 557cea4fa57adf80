package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"estate-chat/contract"
	"estate-chat/domain"
	"estate-chat/domain/event"
	"estate-chat/errors"
)

func messageSentEvent(sender, receiver, content string) event.MessageSent {
	conversationID, _ := domain.DeriveConversationID(sender, receiver)
	return event.MessageSent{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        content,
		SentAt:         time.Now().UTC(),
	}
}

func dialWebSocket(t *testing.T, fixture routerFixture, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(server.URL, "http", "ws", 1) + "/api/ws"
	header := http.Header{"Authorization": []string{fixture.bearer(t, userID)}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocket_Delivers_Frames_To_The_Client(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()
	fixture.messaging.subscribed = make(chan contract.EventSink, 1)

	server := httptest.NewServer(fixture.router)
	defer server.Close()

	conn := dialWebSocket(t, fixture, server, "alice")

	var sink contract.EventSink
	select {
	case sink = <-fixture.messaging.subscribed:
	case <-time.After(time.Second):
		req.Fail("subscription never reached the messaging service")
	}

	evt := messageSentEvent("bob", "alice", "new listing for you")
	req.NoError(sink.Consume(context.Background(), evt))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var frame wsFrame
	req.NoError(conn.ReadJSON(&frame))
	req.Equal("message_sent", frame.Type)
	req.Equal("bob", frame.SenderID)
	req.Equal("alice", frame.ReceiverID)
	req.Equal("new listing for you", frame.Content)
}

func TestWebSocket_Closes_With_Policy_Violation_When_Subscribe_Fails(t *testing.T) {
	req := require.New(t)
	fixture := newRouterFixture()
	fixture.messaging.subscribeErr = errors.ErrEmptyParticipantID

	server := httptest.NewServer(fixture.router)
	defer server.Close()

	conn := dialWebSocket(t, fixture, server, "alice")

	// The upgrade succeeds; the refusal arrives as a close frame, not an
	// HTTP error, because the connection is no longer an HTTP response.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := conn.ReadMessage()
	req.Error(err)

	var closeErr *websocket.CloseError
	req.ErrorAs(err, &closeErr)
	req.Equal(websocket.ClosePolicyViolation, closeErr.Code)
}
