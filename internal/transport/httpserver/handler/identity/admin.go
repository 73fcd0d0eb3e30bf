package identity

import (
	"net/http"
	"strings"
	"time"

	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type buildingResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type createBuildingRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	BuildingID    *string   `json:"building_id"`
	Apartment     *string   `json:"apartment"`
	Blocked       bool      `json:"blocked"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

type userListResponse struct {
	Items []userResponse `json:"items"`
	Total int64          `json:"total"`
}

type setBlockedRequest struct {
	Blocked bool `json:"blocked"`
}

func (h *Handlers) ListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := h.Users.ListBuildings(r.Context())
	if err != nil {
		h.log.InternalError("identity.list_buildings: list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]buildingResponse, 0, len(buildings))
	for _, building := range buildings {
		response = append(response, toBuildingResponse(building))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": response})
}

func (h *Handlers) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var req createBuildingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	building, err := h.Users.CreateBuilding(r.Context(), req.Name, req.Address)
	if err != nil {
		h.writeUserError(w, "identity.create_building", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBuildingResponse(*building))
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseIntParam(query.Get("limit"), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	offset, err := parseIntParam(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid offset")
		return
	}

	users, total, err := h.Users.ListUsers(r.Context(), userdomain.ListUsersFilter{
		Query:      strings.TrimSpace(query.Get("q")),
		BuildingID: strings.TrimSpace(query.Get("building_id")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.log.InternalError("identity.list_users: list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, userListResponse{Items: items, Total: total})
}

func (h *Handlers) SetBlocked(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req setBlockedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	userID := chi.URLParam(r, "id")
	if err := h.Users.SetBlocked(r.Context(), actor.ID, userID, req.Blocked); err != nil {
		h.writeUserError(w, "identity.set_blocked", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": userID, "blocked": req.Blocked})
}

func toBuildingResponse(building userdomain.Building) buildingResponse {
	return buildingResponse{
		ID:      building.ID,
		Name:    building.Name,
		Address: building.Address,
	}
}

func toUserResponse(user userdomain.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		BuildingID:    user.BuildingID,
		Apartment:     user.Apartment,
		Blocked:       user.Blocked,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
	}
}
