//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"foodshare-go/internal/auth"
	"foodshare-go/internal/config"
	"foodshare-go/internal/db"
	bookingsdomain "foodshare-go/internal/domain/bookings"
	dishesdomain "foodshare-go/internal/domain/dishes"
	messagingdomain "foodshare-go/internal/domain/messaging"
	notificationsdomain "foodshare-go/internal/domain/notifications"
	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/internal/repository/inmemory"
	bookingsrepo "foodshare-go/internal/repository/postgres/bookings"
	dishesrepo "foodshare-go/internal/repository/postgres/dishes"
	messagingrepo "foodshare-go/internal/repository/postgres/messaging"
	notificationsrepo "foodshare-go/internal/repository/postgres/notifications"
	userrepo "foodshare-go/internal/repository/postgres/user"
	"foodshare-go/internal/transport/httpserver"
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
	"gorm.io/gorm"
)

const cookieName = "foodshare_session"

type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *recordingMailer) SendVerification(_ context.Context, msg userdomain.VerificationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[msg.Email] = msg.Code
	return nil
}

func (m *recordingMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	mailer *recordingMailer
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.Nop()
	cfg := config.Config{
		DB:        config.DBConfig{DSN: dsn},
		RateLimit: config.RateLimitConfig{AuthPerSecond: 1000, AuthBurst: 1000},
		Auth: config.AuthConfig{
			JWTSecret:            "e2e-secret",
			TokenTTL:             time.Hour,
			CookieName:           cookieName,
			VerificationTTL:      15 * time.Minute,
			RequireVerifiedEmail: true,
		},
		Catalog: config.CatalogConfig{PageSize: 12},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(dbConn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	mailer := &recordingMailer{codes: make(map[string]string)}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	notificationService := notificationsdomain.NewService(notificationsrepo.NewPostgres(dbConn), nil, log)
	userService := userdomain.NewService(userrepo.NewPostgres(dbConn), auth.Hasher{}, tokens, mailer, userdomain.Options{
		VerificationTTL:      cfg.Auth.VerificationTTL,
		RequireVerifiedEmail: cfg.Auth.RequireVerifiedEmail,
		SessionCacheTTL:      time.Second,
	}, log).WithCache(inmemory.NewUserCache())

	handlers := &handler.Handlers{
		Common:        commonhandler.New(log),
		Identity:      identityhandler.New(userService, identityhandler.CookieOptions{Name: cookieName}, log),
		Dishes:        disheshandler.New(dishesdomain.NewService(dishesrepo.NewPostgres(dbConn), notificationService, cfg.Catalog.PageSize, log), log),
		Bookings:      bookingshandler.New(bookingsdomain.NewService(bookingsrepo.NewPostgres(dbConn), notificationService, log), log),
		Messaging:     messaginghandler.New(messagingdomain.NewService(messagingrepo.NewPostgres(dbConn), notificationService, log), log),
		Notifications: notificationshandler.New(notificationService, log),
		Uploads:       uploadshandler.New(nil, log),
	}
	router := httpserver.NewRouter(cfg, handlers, authmw.NewSessionAuth(tokens, userService, cookieName, log))

	return &testEnv{server: httptest.NewServer(router), db: dbConn, mailer: mailer}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE notifications, messages, conversations, bookings, likes, dishes, users, buildings CASCADE",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, respBody
}

func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type idResponse struct {
	ID string `json:"id"`
}

type bookingResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Total  float64 `json:"total"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

// signUpAndLogin registers a verified user and returns its id and session token.
func (e *testEnv) signUpAndLogin(t *testing.T, client *http.Client, email string) (string, string) {
	t.Helper()
	base := e.server.URL + "/api"

	resp, body := requestJSON(t, client, http.MethodPost, base+"/auth/signup", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
		"name":     email,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("login before verify: expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/auth/verify", "", map[string]string{
		"email": email,
		"code":  e.mailer.code(email),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var login loginResponse
	decode(t, body, &login)
	return login.User.ID, login.Token
}

func (e *testEnv) createDish(t *testing.T, client *http.Client, token string, portions int) string {
	t.Helper()
	resp, body := requestJSON(t, client, http.MethodPost, e.server.URL+"/api/dishes", token, map[string]interface{}{
		"title":       "Plov",
		"description": "Lamb and rice",
		"price":       12.5,
		"portions":    portions,
		"ingredients": []string{"rice", "lamb", "rice"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create dish: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var dish idResponse
	decode(t, body, &dish)
	return dish.ID
}

func pickup() string {
	return time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
}

func countBookings(t *testing.T, dbConn *gorm.DB, dishID string) int64 {
	t.Helper()
	var count int64
	if err := dbConn.Table("bookings").Where("dish_id = ?", dishID).Count(&count).Error; err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	return count
}

func TestE2EBookingCapacityFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL + "/api"

	_, ownerToken := env.signUpAndLogin(t, client, "owner@example.com")
	_, buyerToken := env.signUpAndLogin(t, client, "buyer@example.com")
	_, otherToken := env.signUpAndLogin(t, client, "other@example.com")

	dishID := env.createDish(t, client, ownerToken, 4)

	resp, body := requestJSON(t, client, http.MethodPost, base+"/bookings", "", map[string]interface{}{
		"dish_id": dishID, "portions": 1, "pickup_time": pickup(),
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous booking: expected 401, got %d: %s", resp.StatusCode, string(body))
	}
	if n := countBookings(t, env.db, dishID); n != 0 {
		t.Fatalf("anonymous booking wrote %d rows", n)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/bookings", ownerToken, map[string]interface{}{
		"dish_id": dishID, "portions": 1, "pickup_time": pickup(),
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("own dish: expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/bookings", buyerToken, map[string]interface{}{
		"dish_id": dishID, "portions": 3, "pickup_time": pickup(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first booking: expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var first bookingResponse
	decode(t, body, &first)
	if first.Status != "PENDING" || first.Total != 37.5 {
		t.Fatalf("unexpected booking %+v", first)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/bookings", otherToken, map[string]interface{}{
		"dish_id": dishID, "portions": 2, "pickup_time": pickup(),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("over capacity: expected 400, got %d: %s", resp.StatusCode, string(body))
	}
	var capacity errorEnvelope
	decode(t, body, &capacity)
	if capacity.Error.Code != "capacity_exceeded" || capacity.Error.Details["available"] != float64(1) {
		t.Fatalf("unexpected capacity error %s", string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/bookings/"+first.ID+"/status", buyerToken, map[string]string{"status": "approved"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("booker approving: expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/bookings/"+first.ID+"/status", ownerToken, map[string]string{"status": "rejected"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	// Rejected portions return to the pool.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/bookings", otherToken, map[string]interface{}{
		"dish_id": dishID, "portions": 4, "pickup_time": pickup(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("after reject: expected 201, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/notifications/unread-count", ownerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unread count: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var unread struct {
		Count int64 `json:"count"`
	}
	decode(t, body, &unread)
	if unread.Count != 2 {
		t.Fatalf("expected 2 booking notifications for owner, got %d", unread.Count)
	}
}

func TestE2EConcurrentBookingsNeverOversell(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 10 * time.Second}
	_, ownerToken := env.signUpAndLogin(t, client, "cook@example.com")
	dishID := env.createDish(t, client, ownerToken, 5)

	buyers := make([]string, 4)
	for i := range buyers {
		_, buyers[i] = env.signUpAndLogin(t, client, fmt.Sprintf("buyer%d@example.com", i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]interface{}{
				"dish_id": dishID, "portions": 1, "pickup_time": pickup(),
			})
			req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/bookings", bytes.NewReader(payload))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := client.Do(req)
			if err != nil {
				return
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(buyers[i%len(buyers)])
	}
	wg.Wait()

	if created != 5 {
		t.Fatalf("expected exactly 5 bookings, got %d", created)
	}
	var committed int64
	err := env.db.Table("bookings").
		Select("COALESCE(SUM(portions), 0)").
		Where("dish_id = ? AND status IN ?", dishID, []string{"PENDING", "APPROVED"}).
		Scan(&committed).Error
	if err != nil {
		t.Fatalf("sum portions: %v", err)
	}
	if committed != 5 {
		t.Fatalf("committed portions %d exceed capacity", committed)
	}
}

func TestE2ELikesAndMessaging(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL + "/api"
	_, ownerToken := env.signUpAndLogin(t, client, "chef@example.com")
	_, buyerToken := env.signUpAndLogin(t, client, "neighbor@example.com")
	dishID := env.createDish(t, client, ownerToken, 2)

	var like struct {
		Liked      bool `json:"liked"`
		LikesCount int  `json:"likes_count"`
	}
	resp, body := requestJSON(t, client, http.MethodPost, base+"/dishes/"+dishID+"/like", buyerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("like: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	decode(t, body, &like)
	if !like.Liked || like.LikesCount != 1 {
		t.Fatalf("unexpected like %+v", like)
	}
	_, body = requestJSON(t, client, http.MethodPost, base+"/dishes/"+dishID+"/like", buyerToken, nil)
	decode(t, body, &like)
	if like.Liked || like.LikesCount != 0 {
		t.Fatalf("unexpected unlike %+v", like)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/conversations", buyerToken, map[string]string{"dish_id": dishID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("conversation: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var conversation idResponse
	decode(t, body, &conversation)

	_, body = requestJSON(t, client, http.MethodPost, base+"/conversations", ownerToken, map[string]string{
		"dish_id": dishID,
		"user_id": conversationPeer(t, client, base, buyerToken),
	})
	var again idResponse
	decode(t, body, &again)
	if again.ID != conversation.ID {
		t.Fatalf("expected same conversation, got %s and %s", conversation.ID, again.ID)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/conversations/"+conversation.ID+"/messages", buyerToken, map[string]string{
		"content": "Can I pick up at six?",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d: %s", resp.StatusCode, string(body))
	}

	var unread struct {
		Count int64 `json:"count"`
	}
	_, body = requestJSON(t, client, http.MethodGet, base+"/messages/unread-count", ownerToken, nil)
	decode(t, body, &unread)
	if unread.Count != 1 {
		t.Fatalf("expected 1 unread message, got %d", unread.Count)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/conversations/"+conversation.ID+"/messages", ownerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages: expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	_, body = requestJSON(t, client, http.MethodGet, base+"/messages/unread-count", ownerToken, nil)
	decode(t, body, &unread)
	if unread.Count != 0 {
		t.Fatalf("expected messages to be read after viewing, got %d", unread.Count)
	}
}

func conversationPeer(t *testing.T, client *http.Client, base, token string) string {
	t.Helper()
	_, body := requestJSON(t, client, http.MethodGet, base+"/auth/me", token, nil)
	var me idResponse
	decode(t, body, &me)
	return me.ID
}

func TestE2ECatalogSearchIsLiteral(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL + "/api"
	_, token := env.signUpAndLogin(t, client, "searcher@example.com")

	for _, title := range []string{"50% off plov", "500 grams of rice", "a_b soup", "axb stew"} {
		resp, body := requestJSON(t, client, http.MethodPost, base+"/dishes", token, map[string]interface{}{
			"title":    title,
			"price":    5,
			"portions": 1,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %q: expected 201, got %d: %s", title, resp.StatusCode, string(body))
		}
	}

	cases := map[string]string{
		"50%25": "50% off plov",
		"A_B":   "a_b soup",
	}
	for query, want := range cases {
		resp, body := requestJSON(t, client, http.MethodGet, base+"/dishes?q="+query, token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search %q: expected 200, got %d: %s", query, resp.StatusCode, string(body))
		}
		var page struct {
			Items []struct {
				Title string `json:"title"`
			} `json:"items"`
			Total int64 `json:"total"`
		}
		decode(t, body, &page)
		if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != want {
			t.Fatalf("search %q: expected only %q, got %s", query, want, string(body))
		}
	}
}
