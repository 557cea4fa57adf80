package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estate-chat/auth"
	"estate-chat/domain"
	"estate-chat/errors"
	"estate-chat/services"
)

// Handler exposes the messaging operations over HTTP. Route handlers only
// translate between JSON and commands; all rules live in the services.
type Handler struct {
	messaging services.IMessagingService
	accounts  services.IAuthService
}

func NewHandler(messaging services.IMessagingService, accounts services.IAuthService) *Handler {
	return &Handler{messaging: messaging, accounts: accounts}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) RegisterAuthedRoutes(r chi.Router) {
	r.Post("/messages", h.handleSendMessage)
	r.Get("/conversations/{otherID}", h.handleGetConversation)
	r.Get("/conversations/{otherID}/unread", h.handleUnreadCount)
	r.Post("/messages/{messageID}/read", h.handleMarkRead)
	r.Get("/messages/search", h.handleSearch)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := h.accounts.Register(payload.Email, payload.Password)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"user_id": userID})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.accounts.Login(payload.Email, payload.Password)
	if err != nil {
		respondError(w, statusForError(err), "invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var payload struct {
		ReceiverID string `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.messaging.SendMessage(r.Context(), domain.SendMessageCommand{
		SenderID:   senderID,
		ReceiverID: payload.ReceiverID,
		Content:    payload.Content,
	})
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	selfID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	messages, err := h.messaging.GetConversation(r.Context(), domain.GetConversationCommand{
		SelfID:  selfID,
		OtherID: chi.URLParam(r, "otherID"),
	})
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	selfID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	count, err := h.messaging.UnreadCount(r.Context(), domain.GetConversationCommand{
		SelfID:  selfID,
		OtherID: chi.URLParam(r, "otherID"),
	})
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	readerID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	message, err := h.messaging.MarkRead(r.Context(), domain.MarkReadCommand{
		MessageID: chi.URLParam(r, "messageID"),
		ReaderID:  readerID,
	})
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, message)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	hits, err := h.messaging.SearchMessages(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func statusForError(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrEmptyParticipantID),
		stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrSelfConversation),
		stderrors.Is(err, errors.ErrInvalidPassword):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrNotReceiver):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrMessageNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
