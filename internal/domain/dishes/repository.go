package dishes

import (
	"context"

	bookingsdomain "foodshare-go/internal/domain/bookings"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	CreateDish(ctx context.Context, dish *Dish) error
	GetDishView(ctx context.Context, dishID, viewerID string, statuses []bookingsdomain.Status) (*DishView, error)
	// LockDish reads the dish with a row lock held until the surrounding transaction ends.
	LockDish(ctx context.Context, dishID string) (*Dish, error)
	UpdateDish(ctx context.Context, dish *Dish) error
	DeleteDish(ctx context.Context, dishID string) error
	SumCommittedPortions(ctx context.Context, dishID string, statuses []bookingsdomain.Status) (int, error)
	ListBookerIDs(ctx context.Context, dishID string, statuses []bookingsdomain.Status) ([]string, error)
	CountDishes(ctx context.Context, filter ListFilter, statuses []bookingsdomain.Status) (int64, error)
	ListDishes(ctx context.Context, filter ListFilter, statuses []bookingsdomain.Status, limit, offset int) ([]DishView, error)
	// DeleteLike and InsertLike report whether a row was affected.
	DeleteLike(ctx context.Context, dishID, userID string) (bool, error)
	InsertLike(ctx context.Context, like *Like) (bool, error)
	AdjustLikes(ctx context.Context, dishID string, delta int) (int, error)
}
