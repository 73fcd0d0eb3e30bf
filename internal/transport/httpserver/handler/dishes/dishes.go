package dishes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	dishesdomain "foodshare-go/internal/domain/dishes"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	"foodshare-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createDishRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Portions      int        `json:"portions"`
	Ingredients   []string   `json:"ingredients"`
	Images        []string   `json:"images"`
	Available     *bool      `json:"available"`
	AvailableFrom *time.Time `json:"available_from"`
	AvailableTo   *time.Time `json:"available_to"`
}

type updateDishRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Price         *float64   `json:"price"`
	Portions      *int       `json:"portions"`
	Ingredients   *[]string  `json:"ingredients"`
	Images        *[]string  `json:"images"`
	Available     *bool      `json:"available"`
	AvailableFrom *time.Time `json:"available_from"`
	AvailableTo   *time.Time `json:"available_to"`
	ClearWindow   bool       `json:"clear_window"`
}

type dishResponse struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	OwnerName         string     `json:"owner_name"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	Portions          int        `json:"portions"`
	AvailablePortions int        `json:"available_portions"`
	Ingredients       []string   `json:"ingredients"`
	Images            []string   `json:"images"`
	Available         bool       `json:"available"`
	AvailableFrom     *time.Time `json:"available_from"`
	AvailableTo       *time.Time `json:"available_to"`
	LikesCount        int        `json:"likes_count"`
	LikedByMe         bool       `json:"liked_by_me"`
	BuildingID        *string    `json:"building_id"`
	BuildingName      *string    `json:"building_name"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type dishPageResponse struct {
	Items      []dishResponse `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	PageSize   int            `json:"page_size"`
}

type likeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

func (h *Handlers) ListDishes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	query := r.URL.Query()
	page, err := parseIntParam(query.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}
	available, err := parseBoolParam(query.Get("available"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid available")
		return
	}
	minPrice, err := parseFloatParam(query.Get("min_price"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid min_price")
		return
	}
	maxPrice, err := parseFloatParam(query.Get("max_price"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid max_price")
		return
	}
	pickupDate, err := parseDateParam(query.Get("pickup_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid pickup_date")
		return
	}

	result, err := h.Dishes.ListDishes(r.Context(), dishesdomain.ListFilter{
		ViewerID:   user.ID,
		Query:      strings.TrimSpace(query.Get("q")),
		BuildingID: commonhandler.StringParam(query.Get("building_id")),
		Available:  available,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		PickupDate: pickupDate,
		Sort:       query.Get("sort"),
		Page:       page,
	})
	if err != nil {
		h.writeDishError(w, "dishes.list", err, "user_id", user.ID)
		return
	}

	items := make([]dishResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, toDishResponse(item))
	}
	writeJSON(w, http.StatusOK, dishPageResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
		PageSize:   result.PageSize,
	})
}

func (h *Handlers) CreateDish(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createDishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	dish, err := h.Dishes.CreateDish(r.Context(), dishesdomain.CreateDishInput{
		OwnerID:       user.ID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Portions:      req.Portions,
		Ingredients:   req.Ingredients,
		Images:        req.Images,
		Available:     req.Available,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
	})
	if err != nil {
		h.writeDishError(w, "dishes.create", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toDishResponse(*dish))
}

func (h *Handlers) GetDish(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	dishID := chi.URLParam(r, "id")
	dish, err := h.Dishes.GetDish(r.Context(), dishID, user.ID)
	if err != nil {
		h.writeDishError(w, "dishes.get", err, "dish_id", dishID)
		return
	}
	writeJSON(w, http.StatusOK, toDishResponse(*dish))
}

func (h *Handlers) UpdateDish(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req updateDishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	dishID := chi.URLParam(r, "id")
	dish, err := h.Dishes.UpdateDish(r.Context(), dishID, user.ID, dishesdomain.UpdateDishInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Portions:      req.Portions,
		Ingredients:   req.Ingredients,
		Images:        req.Images,
		Available:     req.Available,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		ClearWindow:   req.ClearWindow,
	})
	if err != nil {
		h.writeDishError(w, "dishes.update", err, "dish_id", dishID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toDishResponse(*dish))
}

func (h *Handlers) DeleteDish(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	dishID := chi.URLParam(r, "id")
	if err := h.Dishes.DeleteDish(r.Context(), dishID, user.ID); err != nil {
		h.writeDishError(w, "dishes.delete", err, "dish_id", dishID, "user_id", user.ID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	dishID := chi.URLParam(r, "id")
	result, err := h.Dishes.ToggleLike(r.Context(), dishID, user.ID)
	if err != nil {
		h.writeDishError(w, "dishes.toggle_like", err, "dish_id", dishID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: result.Liked, LikesCount: result.LikesCount})
}

func (h *Handlers) writeDishError(w http.ResponseWriter, op string, err error, args ...any) {
	switch {
	case errors.Is(err, dishesdomain.ErrDishNotFound):
		h.log.BusinessError(op+": dish not found", err, args...)
		writeError(w, http.StatusNotFound, "dish_not_found", "dish not found")
	case errors.Is(err, dishesdomain.ErrForbidden):
		h.log.BusinessError(op+": forbidden", err, args...)
		writeError(w, http.StatusForbidden, "forbidden", "only the owner can change this dish")
	case errors.Is(err, dishesdomain.ErrPortionsBelowCommitted):
		h.log.BusinessError(op+": portions below committed", err, args...)
		writeError(w, http.StatusBadRequest, "portions_below_booked", commonhandler.ValidationMessage(err, dishesdomain.ErrPortionsBelowCommitted))
	case errors.Is(err, dishesdomain.ErrInvalidInput):
		h.log.BusinessError(op+": invalid input", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_request", commonhandler.ValidationMessage(err, dishesdomain.ErrInvalidInput))
	default:
		h.log.InternalError(op+": failed", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toDishResponse(view dishesdomain.DishView) dishResponse {
	ingredients := []string(view.Ingredients)
	if ingredients == nil {
		ingredients = []string{}
	}
	images := []string(view.Images)
	if images == nil {
		images = []string{}
	}

	return dishResponse{
		ID:                view.ID,
		OwnerID:           view.OwnerID,
		OwnerName:         view.OwnerName,
		Title:             view.Title,
		Description:       view.Description,
		Price:             view.Price,
		Portions:          view.Portions,
		AvailablePortions: max(view.AvailablePortions, 0),
		Ingredients:       ingredients,
		Images:            images,
		Available:         view.Available,
		AvailableFrom:     view.AvailableFrom,
		AvailableTo:       view.AvailableTo,
		LikesCount:        view.LikesCount,
		LikedByMe:         view.LikedByMe,
		BuildingID:        view.BuildingID,
		BuildingName:      view.BuildingName,
		CreatedAt:         view.CreatedAt,
		UpdatedAt:         view.UpdatedAt,
	}
}
