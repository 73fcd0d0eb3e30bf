package notifications

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	"foodshare-go/internal/transport/httpserver/middleware"
)

type markReadRequest struct {
	IDs []string `json:"ids"`
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type notificationListResponse struct {
	Items []notificationResponse `json:"items"`
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	query := r.URL.Query()
	limit, err := parseIntParam(query.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	unreadOnly := false
	if value := query.Get("unread"); value != "" {
		unreadOnly, err = strconv.ParseBool(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid unread")
			return
		}
	}

	items, err := h.Notifications.List(r.Context(), user.ID, notificationsdomain.ListFilter{
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		h.log.InternalError("notifications.list: list failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]notificationResponse, 0, len(items))
	for _, item := range items {
		response = append(response, notificationResponse{
			ID:        item.ID,
			Type:      string(item.Type),
			Message:   item.Message,
			Read:      item.Read,
			CreatedAt: item.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, notificationListResponse{Items: response})
}

// MarkRead accepts an optional body; no ids marks every notification as read.
func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req markReadRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	updated, err := h.Notifications.MarkRead(r.Context(), user.ID, req.IDs)
	if err != nil {
		if errors.Is(err, notificationsdomain.ErrInvalidInput) {
			h.log.BusinessError("notifications.mark_read: invalid input", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_request", commonhandler.ValidationMessage(err, notificationsdomain.ErrInvalidInput))
			return
		}
		h.log.InternalError("notifications.mark_read: update failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	deleted, err := h.Notifications.Clear(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("notifications.clear: delete failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	count, err := h.Notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("notifications.unread_count: count failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
