package httpserver

import (
	"net/http"
	"time"

	"foodshare-go/internal/config"
	"foodshare-go/internal/transport/httpserver/handler"
	authmw "foodshare-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.SessionAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	limiter := authmw.NewRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/health", handlers.Common.Health)
		r.Get("/buildings", handlers.Identity.ListBuildings)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)

			r.Post("/auth/signup", handlers.Identity.SignUp)
			r.Post("/auth/login", handlers.Identity.Login)
			r.Post("/auth/verify", handlers.Identity.Verify)
			r.Post("/auth/verify/resend", handlers.Identity.ResendVerification)
		})
		r.Post("/auth/logout", handlers.Identity.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Require)

			r.Get("/auth/me", handlers.Identity.Me)

			r.Get("/dishes", handlers.Dishes.ListDishes)
			r.Post("/dishes", handlers.Dishes.CreateDish)
			r.Get("/dishes/{id}", handlers.Dishes.GetDish)
			r.Patch("/dishes/{id}", handlers.Dishes.UpdateDish)
			r.Delete("/dishes/{id}", handlers.Dishes.DeleteDish)
			r.Post("/dishes/{id}/like", handlers.Dishes.ToggleLike)
			r.Get("/dishes/{id}/bookings", handlers.Bookings.ListDishBookings)

			r.Get("/bookings", handlers.Bookings.ListMyBookings)
			r.Post("/bookings", handlers.Bookings.CreateBooking)
			r.Get("/bookings/received", handlers.Bookings.ListReceivedBookings)
			r.Get("/bookings/{id}", handlers.Bookings.GetBooking)
			r.Post("/bookings/{id}/status", handlers.Bookings.UpdateBookingStatus)

			r.Get("/conversations", handlers.Messaging.ListConversations)
			r.Post("/conversations", handlers.Messaging.CreateConversation)
			r.Get("/conversations/{id}/messages", handlers.Messaging.ListMessages)
			r.Post("/conversations/{id}/messages", handlers.Messaging.SendMessage)
			r.Get("/messages/unread-count", handlers.Messaging.UnreadCount)

			r.Get("/notifications", handlers.Notifications.ListNotifications)
			r.Put("/notifications", handlers.Notifications.MarkRead)
			r.Delete("/notifications", handlers.Notifications.Clear)
			r.Get("/notifications/unread-count", handlers.Notifications.UnreadCount)

			r.Post("/uploads/dish-images", handlers.Uploads.PresignDishImage)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAdmin)

			r.Post("/buildings", handlers.Identity.CreateBuilding)
			r.Get("/admin/users", handlers.Identity.ListUsers)
			r.Post("/admin/users/{id}/block", handlers.Identity.SetBlocked)
		})
	})

	return r
}
