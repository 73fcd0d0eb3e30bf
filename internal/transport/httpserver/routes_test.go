package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodshare-go/internal/auth"
	"foodshare-go/internal/config"
	bookingsdomain "foodshare-go/internal/domain/bookings"
	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/internal/transport/httpserver/handler"
	bookingshandler "foodshare-go/internal/transport/httpserver/handler/bookings"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	disheshandler "foodshare-go/internal/transport/httpserver/handler/dishes"
	identityhandler "foodshare-go/internal/transport/httpserver/handler/identity"
	messaginghandler "foodshare-go/internal/transport/httpserver/handler/messaging"
	notificationshandler "foodshare-go/internal/transport/httpserver/handler/notifications"
	uploadshandler "foodshare-go/internal/transport/httpserver/handler/uploads"
	authmw "foodshare-go/internal/transport/httpserver/middleware"
	"foodshare-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions map[string]userdomain.Session

func (f fakeSessions) GetSession(_ context.Context, userID string) (*userdomain.Session, error) {
	session, ok := f[userID]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return &session, nil
}

type fakeBookings struct {
	bookingshandler.BookingService
	created []bookingsdomain.CreateBookingInput
	err     error
}

func (f *fakeBookings) CreateBooking(_ context.Context, input bookingsdomain.CreateBookingInput) (*bookingsdomain.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	return &bookingsdomain.Booking{
		ID:         "b-1",
		DishID:     input.DishID,
		UserID:     input.UserID,
		PickupTime: input.PickupTime,
		Portions:   input.Portions,
		Status:     bookingsdomain.StatusPending,
		Total:      25,
	}, nil
}

type stubUsers struct {
	identityhandler.UserService
}

func (stubUsers) ListBuildings(context.Context) ([]userdomain.Building, error) {
	return []userdomain.Building{{ID: "bld-1", Name: "Oak House"}}, nil
}

type testServer struct {
	router   http.Handler
	tokens   *auth.TokenManager
	bookings *fakeBookings
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	sessions := fakeSessions{
		"user-1":  {ID: "user-1", Name: "Ann", Role: userdomain.RoleUser},
		"admin-1": {ID: "admin-1", Name: "Root", Role: userdomain.RoleAdmin},
	}
	bookings := &fakeBookings{}

	handlers := &handler.Handlers{
		Common:        commonhandler.New(log),
		Identity:      identityhandler.New(stubUsers{}, identityhandler.CookieOptions{Name: "foodshare_session"}, log),
		Dishes:        disheshandler.New(nil, log),
		Bookings:      bookingshandler.New(bookings, log),
		Messaging:     messaginghandler.New(nil, log),
		Notifications: notificationshandler.New(nil, log),
		Uploads:       uploadshandler.New(nil, log),
	}
	cfg := config.Config{
		CORSOrigins: []string{"http://localhost:5173"},
		RateLimit:   config.RateLimitConfig{AuthPerSecond: 1, AuthBurst: 5},
	}
	sessionAuth := authmw.NewSessionAuth(tokens, sessions, "foodshare_session", log)

	return &testServer{
		router:   NewRouter(cfg, handlers, sessionAuth),
		tokens:   tokens,
		bookings: bookings,
	}
}

func (s *testServer) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		token, _, err := s.tokens.Issue(userID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "foodshare_session", Value: token})
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/buildings", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oak House")
}

func TestUnauthenticatedBookingIsRejectedWithoutWrite(t *testing.T) {
	s := newTestServer(t)
	body := `{"dish_id":"d-1","portions":1,"pickup_time":"2024-05-01T12:00:00Z"}`

	rec := s.do(t, http.MethodPost, "/api/bookings", "", body)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.bookings.created)
}

func TestCreateBookingUsesSessionUser(t *testing.T) {
	s := newTestServer(t)
	body := `{"dish_id":"d-1","portions":2,"pickup_time":"2024-05-01T12:00:00Z"}`

	rec := s.do(t, http.MethodPost, "/api/bookings", "user-1", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.bookings.created, 1)
	assert.Equal(t, "user-1", s.bookings.created[0].UserID)
	assert.Equal(t, 2, s.bookings.created[0].Portions)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "PENDING", payload["status"])
}

func TestCapacityErrorCarriesAvailable(t *testing.T) {
	s := newTestServer(t)
	s.bookings.err = &bookingsdomain.CapacityError{Requested: 2, Available: 1}
	body := `{"dish_id":"d-1","portions":2,"pickup_time":"2024-05-01T12:00:00Z"}`

	rec := s.do(t, http.MethodPost, "/api/bookings", "user-1", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"error":{"code":"capacity_exceeded","message":"not enough portions available","details":{"available":1,"requested":2}}}`,
		rec.Body.String(),
	)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/buildings", "", `{"name":"Elm"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/buildings", "user-1", `{"name":"Elm"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadsWithoutStorageAre503(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/uploads/dish-images", "user-1", `{"filename":"a.png","content_type":"image/png"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/logout", "user-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "foodshare_session", rec.Result().Cookies()[0].Name)
	assert.Equal(t, "", rec.Result().Cookies()[0].Value)
}
