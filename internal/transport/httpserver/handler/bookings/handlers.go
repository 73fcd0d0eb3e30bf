package bookings

import (
	"context"

	bookingsdomain "foodshare-go/internal/domain/bookings"
	"foodshare-go/pkg/logger"
)

type BookingService interface {
	CreateBooking(ctx context.Context, input bookingsdomain.CreateBookingInput) (*bookingsdomain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID, actorID string, status bookingsdomain.Status) (*bookingsdomain.Booking, error)
	GetBooking(ctx context.Context, bookingID, actorID string) (*bookingsdomain.BookingView, error)
	ListBookingsForDish(ctx context.Context, dishID, actorID string, statuses []bookingsdomain.Status) ([]bookingsdomain.BookingView, error)
	ListReceivedBookings(ctx context.Context, ownerID string, statuses []bookingsdomain.Status) ([]bookingsdomain.DishBookings, error)
	ListBookingsForUser(ctx context.Context, userID string, statuses []bookingsdomain.Status) ([]bookingsdomain.BookingView, error)
}

type Handlers struct {
	Bookings BookingService
	log      logger.Logger
}

func New(bookings BookingService, log logger.Logger) *Handlers {
	return &Handlers{
		Bookings: bookings,
		log:      log,
	}
}
