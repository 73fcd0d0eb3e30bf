package uploads

import (
	"context"
	"errors"
	"net/http"

	"foodshare-go/internal/storage"
	"foodshare-go/internal/transport/httpserver/middleware"
	"foodshare-go/pkg/logger"
)

type Presigner interface {
	PresignDishImage(ctx context.Context, userID, filename, contentType string) (*storage.Upload, error)
}

type Handlers struct {
	Storage Presigner
	log     logger.Logger
}

// New accepts a nil presigner; uploads then answer 503.
func New(presigner Presigner, log logger.Logger) *Handlers {
	return &Handlers{
		Storage: presigner,
		log:     log,
	}
}

type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (h *Handlers) PresignDishImage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if h.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads_not_configured", "uploads are not configured")
		return
	}

	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	upload, err := h.Storage.PresignDishImage(r.Context(), user.ID, req.Filename, req.ContentType)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidContentType), errors.Is(err, storage.ErrInvalidFilename):
			h.log.BusinessError("uploads.presign: invalid input", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, storage.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "uploads_not_configured", "uploads are not configured")
		default:
			h.log.InternalError("uploads.presign: presign failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, upload)
}
