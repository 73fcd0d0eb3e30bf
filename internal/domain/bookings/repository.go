package bookings

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	// LockDish reads the dish with a row lock held until the surrounding transaction ends.
	LockDish(ctx context.Context, dishID string) (*DishSnapshot, error)
	GetDish(ctx context.Context, dishID string) (*DishSnapshot, error)
	SumCommittedPortions(ctx context.Context, dishID string, statuses []Status) (int, error)
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBooking(ctx context.Context, bookingID string) (*BookingView, error)
	LockBooking(ctx context.Context, bookingID string) (*Booking, error)
	// UpdateStatus sets status to "to" only if it is currently "from" and reports whether a row changed.
	UpdateStatus(ctx context.Context, bookingID string, from, to Status) (bool, error)
	ListByDish(ctx context.Context, dishID string, statuses []Status) ([]BookingView, error)
	ListByOwner(ctx context.Context, ownerID string, statuses []Status) ([]BookingView, error)
	ListByUser(ctx context.Context, userID string, statuses []Status) ([]BookingView, error)
}
