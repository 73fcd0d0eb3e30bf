package dishes

import (
	"context"

	dishesdomain "foodshare-go/internal/domain/dishes"
	"foodshare-go/pkg/logger"
)

type DishService interface {
	CreateDish(ctx context.Context, input dishesdomain.CreateDishInput) (*dishesdomain.DishView, error)
	GetDish(ctx context.Context, dishID, viewerID string) (*dishesdomain.DishView, error)
	UpdateDish(ctx context.Context, dishID, actorID string, input dishesdomain.UpdateDishInput) (*dishesdomain.DishView, error)
	DeleteDish(ctx context.Context, dishID, actorID string) error
	ListDishes(ctx context.Context, filter dishesdomain.ListFilter) (*dishesdomain.DishPage, error)
	ToggleLike(ctx context.Context, dishID, userID string) (*dishesdomain.LikeResult, error)
}

type Handlers struct {
	Dishes DishService
	log    logger.Logger
}

func New(dishes DishService, log logger.Logger) *Handlers {
	return &Handlers{
		Dishes: dishes,
		log:    log,
	}
}
