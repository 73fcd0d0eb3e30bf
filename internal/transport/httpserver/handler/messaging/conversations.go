package messaging

import (
	"errors"
	"net/http"
	"time"

	messagingdomain "foodshare-go/internal/domain/messaging"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	"foodshare-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createConversationRequest struct {
	DishID string `json:"dish_id"`
	UserID string `json:"user_id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type conversationResponse struct {
	ID               string    `json:"id"`
	DishID           string    `json:"dish_id"`
	ParticipantOneID string    `json:"participant_one_id"`
	ParticipantTwoID string    `json:"participant_two_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type conversationSummaryResponse struct {
	conversationResponse
	DishTitle     string           `json:"dish_title"`
	OtherUserID   string           `json:"other_user_id"`
	OtherUserName string           `json:"other_user_name"`
	LastMessage   *messageResponse `json:"last_message"`
	UnreadCount   int64            `json:"unread_count"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	summaries, err := h.Messaging.ListConversations(r.Context(), user.ID)
	if err != nil {
		h.writeMessagingError(w, "messaging.list_conversations", err, "user_id", user.ID)
		return
	}

	items := make([]conversationSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		item := conversationSummaryResponse{
			conversationResponse: toConversationResponse(summary.Conversation),
			DishTitle:            summary.DishTitle,
			OtherUserID:          summary.OtherUserID,
			OtherUserName:        summary.OtherUserName,
			UnreadCount:          summary.UnreadCount,
		}
		if summary.LastMessage != nil {
			last := toMessageResponse(*summary.LastMessage)
			item.LastMessage = &last
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	conversation, err := h.Messaging.GetOrCreateConversation(r.Context(), req.DishID, user.ID, req.UserID)
	if err != nil {
		h.writeMessagingError(w, "messaging.create_conversation", err, "dish_id", req.DishID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(*conversation))
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	conversationID := chi.URLParam(r, "id")
	messages, err := h.Messaging.ListMessages(r.Context(), conversationID, user.ID)
	if err != nil {
		h.writeMessagingError(w, "messaging.list_messages", err, "conversation_id", conversationID, "user_id", user.ID)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		items = append(items, toMessageResponse(message))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	conversationID := chi.URLParam(r, "id")
	message, err := h.Messaging.SendMessage(r.Context(), conversationID, user.ID, req.Content)
	if err != nil {
		h.writeMessagingError(w, "messaging.send_message", err, "conversation_id", conversationID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(*message))
}

func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	count, err := h.Messaging.UnreadCount(r.Context(), user.ID)
	if err != nil {
		h.writeMessagingError(w, "messaging.unread_count", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handlers) writeMessagingError(w http.ResponseWriter, op string, err error, args ...any) {
	switch {
	case errors.Is(err, messagingdomain.ErrConversationNotFound):
		h.log.BusinessError(op+": conversation not found", err, args...)
		writeError(w, http.StatusNotFound, "conversation_not_found", "conversation not found")
	case errors.Is(err, messagingdomain.ErrDishNotFound):
		h.log.BusinessError(op+": dish not found", err, args...)
		writeError(w, http.StatusNotFound, "dish_not_found", "dish not found")
	case errors.Is(err, messagingdomain.ErrUserNotFound):
		h.log.BusinessError(op+": user not found", err, args...)
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, messagingdomain.ErrNotParticipant):
		h.log.BusinessError(op+": not a participant", err, args...)
		writeError(w, http.StatusForbidden, "forbidden", "not a participant of this conversation")
	case errors.Is(err, messagingdomain.ErrOwnerNotParticipant):
		h.log.BusinessError(op+": owner not participant", err, args...)
		writeError(w, http.StatusBadRequest, "owner_not_participant", "the dish owner must be part of the conversation")
	case errors.Is(err, messagingdomain.ErrSameParticipant):
		h.log.BusinessError(op+": same participant", err, args...)
		writeError(w, http.StatusBadRequest, "same_participant", "cannot start a conversation with yourself")
	case errors.Is(err, messagingdomain.ErrInvalidInput):
		h.log.BusinessError(op+": invalid input", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_request", commonhandler.ValidationMessage(err, messagingdomain.ErrInvalidInput))
	default:
		h.log.InternalError(op+": failed", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toConversationResponse(conversation messagingdomain.Conversation) conversationResponse {
	return conversationResponse{
		ID:               conversation.ID,
		DishID:           conversation.DishID,
		ParticipantOneID: conversation.ParticipantOneID,
		ParticipantTwoID: conversation.ParticipantTwoID,
		CreatedAt:        conversation.CreatedAt,
		UpdatedAt:        conversation.UpdatedAt,
	}
}

func toMessageResponse(message messagingdomain.Message) messageResponse {
	return messageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		RecipientID:    message.RecipientID,
		Content:        message.Content,
		Read:           message.Read,
		CreatedAt:      message.CreatedAt,
	}
}
