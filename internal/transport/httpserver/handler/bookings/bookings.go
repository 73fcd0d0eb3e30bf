package bookings

import (
	"errors"
	"net/http"
	"time"

	bookingsdomain "foodshare-go/internal/domain/bookings"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	"foodshare-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createBookingRequest struct {
	DishID     string    `json:"dish_id"`
	Portions   int       `json:"portions"`
	PickupTime time.Time `json:"pickup_time"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type bookingResponse struct {
	ID           string    `json:"id"`
	DishID       string    `json:"dish_id"`
	UserID       string    `json:"user_id"`
	PickupTime   time.Time `json:"pickup_time"`
	Portions     int       `json:"portions"`
	Status       string    `json:"status"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	DishTitle    string    `json:"dish_title,omitempty"`
	DishPrice    float64   `json:"dish_price,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	OwnerName    string    `json:"owner_name,omitempty"`
	BookerName   string    `json:"booker_name,omitempty"`
	BuildingID   *string   `json:"building_id,omitempty"`
	BuildingName *string   `json:"building_name,omitempty"`
}

type bookingListResponse struct {
	Items []bookingResponse `json:"items"`
}

type dishBookingsResponse struct {
	DishID            string            `json:"dish_id"`
	DishTitle         string            `json:"dish_title"`
	Portions          int               `json:"portions"`
	AvailablePortions int               `json:"available_portions"`
	Bookings          []bookingResponse `json:"bookings"`
}

type receivedBookingsResponse struct {
	Items []dishBookingsResponse `json:"items"`
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	booking, err := h.Bookings.CreateBooking(r.Context(), bookingsdomain.CreateBookingInput{
		DishID:     req.DishID,
		UserID:     user.ID,
		Portions:   req.Portions,
		PickupTime: req.PickupTime,
	})
	if err != nil {
		h.writeBookingError(w, "bookings.create", err, "dish_id", req.DishID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(*booking))
}

func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	statuses, err := bookingsdomain.ParseStatuses(parseCSV(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
		return
	}

	views, err := h.Bookings.ListBookingsForUser(r.Context(), user.ID, statuses)
	if err != nil {
		h.writeBookingError(w, "bookings.list_mine", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, bookingListResponse{Items: toViewResponses(views)})
}

func (h *Handlers) ListReceivedBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	statuses, err := bookingsdomain.ParseStatuses(parseCSV(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
		return
	}

	groups, err := h.Bookings.ListReceivedBookings(r.Context(), user.ID, statuses)
	if err != nil {
		h.writeBookingError(w, "bookings.list_received", err, "user_id", user.ID)
		return
	}

	items := make([]dishBookingsResponse, 0, len(groups))
	for _, group := range groups {
		items = append(items, dishBookingsResponse{
			DishID:            group.DishID,
			DishTitle:         group.DishTitle,
			Portions:          group.Portions,
			AvailablePortions: group.AvailablePortions,
			Bookings:          toViewResponses(group.Bookings),
		})
	}
	writeJSON(w, http.StatusOK, receivedBookingsResponse{Items: items})
}

func (h *Handlers) ListDishBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	statuses, err := bookingsdomain.ParseStatuses(parseCSV(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
		return
	}

	dishID := chi.URLParam(r, "id")
	views, err := h.Bookings.ListBookingsForDish(r.Context(), dishID, user.ID, statuses)
	if err != nil {
		h.writeBookingError(w, "bookings.list_dish", err, "dish_id", dishID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, bookingListResponse{Items: toViewResponses(views)})
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	bookingID := chi.URLParam(r, "id")
	view, err := h.Bookings.GetBooking(r.Context(), bookingID, user.ID)
	if err != nil {
		h.writeBookingError(w, "bookings.get", err, "booking_id", bookingID, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toViewResponse(*view))
}

func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	status, err := bookingsdomain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", "invalid status")
		return
	}

	bookingID := chi.URLParam(r, "id")
	booking, err := h.Bookings.UpdateBookingStatus(r.Context(), bookingID, user.ID, status)
	if err != nil {
		h.writeBookingError(w, "bookings.update_status", err, "booking_id", bookingID, "user_id", user.ID, "status", status)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*booking))
}

func (h *Handlers) writeBookingError(w http.ResponseWriter, op string, err error, args ...any) {
	var capacityErr *bookingsdomain.CapacityError
	switch {
	case errors.As(err, &capacityErr):
		h.log.BusinessError(op+": capacity exceeded", err, args...)
		commonhandler.WriteErrorDetails(w, http.StatusBadRequest, "capacity_exceeded",
			"not enough portions available",
			map[string]interface{}{"available": capacityErr.Available, "requested": capacityErr.Requested},
		)
	case errors.Is(err, bookingsdomain.ErrBookingNotFound):
		h.log.BusinessError(op+": booking not found", err, args...)
		writeError(w, http.StatusNotFound, "booking_not_found", "booking not found")
	case errors.Is(err, bookingsdomain.ErrDishNotFound):
		h.log.BusinessError(op+": dish not found", err, args...)
		writeError(w, http.StatusNotFound, "dish_not_found", "dish not found")
	case errors.Is(err, bookingsdomain.ErrOwnDish):
		h.log.BusinessError(op+": own dish", err, args...)
		writeError(w, http.StatusForbidden, "own_dish", "you cannot book your own dish")
	case errors.Is(err, bookingsdomain.ErrForbidden):
		h.log.BusinessError(op+": forbidden", err, args...)
		writeError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, bookingsdomain.ErrDishUnavailable):
		h.log.BusinessError(op+": dish unavailable", err, args...)
		writeError(w, http.StatusBadRequest, "dish_unavailable", "dish is not available")
	case errors.Is(err, bookingsdomain.ErrPickupOutsideWindow):
		h.log.BusinessError(op+": pickup outside window", err, args...)
		writeError(w, http.StatusBadRequest, "pickup_outside_window", "pickup time is outside the availability window")
	case errors.Is(err, bookingsdomain.ErrInvalidTransition):
		h.log.BusinessError(op+": invalid transition", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_transition", commonhandler.ValidationMessage(err, bookingsdomain.ErrInvalidTransition))
	case errors.Is(err, bookingsdomain.ErrInvalidStatus):
		h.log.BusinessError(op+": invalid status", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_status", "invalid status")
	case errors.Is(err, bookingsdomain.ErrInvalidInput):
		h.log.BusinessError(op+": invalid input", err, args...)
		writeError(w, http.StatusBadRequest, "invalid_request", commonhandler.ValidationMessage(err, bookingsdomain.ErrInvalidInput))
	default:
		h.log.InternalError(op+": failed", err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toBookingResponse(booking bookingsdomain.Booking) bookingResponse {
	return bookingResponse{
		ID:         booking.ID,
		DishID:     booking.DishID,
		UserID:     booking.UserID,
		PickupTime: booking.PickupTime,
		Portions:   booking.Portions,
		Status:     string(booking.Status),
		Total:      booking.Total,
		CreatedAt:  booking.CreatedAt,
		UpdatedAt:  booking.UpdatedAt,
	}
}

func toViewResponse(view bookingsdomain.BookingView) bookingResponse {
	response := toBookingResponse(view.Booking)
	response.DishTitle = view.DishTitle
	response.DishPrice = view.DishPrice
	response.OwnerID = view.OwnerID
	response.OwnerName = view.OwnerName
	response.BookerName = view.BookerName
	response.BuildingID = view.BuildingID
	response.BuildingName = view.BuildingName
	return response
}

func toViewResponses(views []bookingsdomain.BookingView) []bookingResponse {
	items := make([]bookingResponse, 0, len(views))
	for _, view := range views {
		items = append(items, toViewResponse(view))
	}
	return items
}
