package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"estate-chat/auth"
	"estate-chat/domain/event"
	"estate-chat/services"
)

const wsWriteTimeout = 5 * time.Second

// WebSocketHandler turns authenticated connections into realtime listeners.
// Each connection is one subscription; closing the socket disposes it.
type WebSocketHandler struct {
	log       *slog.Logger
	messaging services.IMessagingService
	upgrader  websocket.Upgrader
}

func NewWebSocketHandler(log *slog.Logger, messaging services.IMessagingService) *WebSocketHandler {
	return &WebSocketHandler{
		log:       log,
		messaging: messaging,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sink := newConnSink(conn)
	unsubscribe, err := h.messaging.Subscribe(userID, sink)
	if err != nil {
		// The connection is already hijacked by the upgrade; the HTTP
		// ResponseWriter is unusable from here on.
		h.log.Warn("Subscription failed", "user", userID, "error", err)
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(wsWriteTimeout))
		return
	}
	defer unsubscribe()

	h.log.Info("Realtime listener connected", "user", userID)

	// Drain the read side until the client disconnects. Inbound frames are
	// ignored: messages go through the REST endpoint.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.log.Info("Realtime listener disconnected", "user", userID)
}

// connSink adapts one websocket connection to the event sink contract.
// Gorilla connections allow a single concurrent writer, hence the mutex.
type connSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnSink(conn *websocket.Conn) *connSink {
	return &connSink{conn: conn}
}

type wsFrame struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content,omitempty"`
	Lang           string `json:"lang,omitempty"`
	At             int64  `json:"at"` // unix nanoseconds
}

func (s *connSink) Consume(_ context.Context, e event.DomainEvent) error {
	var frame wsFrame
	switch ev := e.(type) {
	case event.MessageSent:
		frame = wsFrame{
			Type:           "message_sent",
			ID:             ev.ID.String(),
			ConversationID: string(ev.ConversationID),
			SenderID:       ev.SenderID,
			ReceiverID:     ev.ReceiverID,
			Content:        ev.Content,
			Lang:           ev.Lang,
			At:             ev.SentAt.UnixNano(),
		}
	case event.MessageRead:
		frame = wsFrame{
			Type:           "message_read",
			ID:             ev.ID.String(),
			ConversationID: string(ev.ConversationID),
			SenderID:       ev.SenderID,
			ReceiverID:     ev.ReceiverID,
			At:             ev.ReadAt.UnixNano(),
		}
	default:
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return s.conn.WriteJSON(frame)
}
