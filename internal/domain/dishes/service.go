package dishes

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	bookingsdomain "foodshare-go/internal/domain/bookings"
	notificationsdomain "foodshare-go/internal/domain/notifications"
	"foodshare-go/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultPageSize    = 12
	maxTitleLength     = 120
	maxDescription     = 4000
	maxPortions        = 1000
	maxPrice           = 100000
	maxImages          = 10
	maxIngredients     = 50
	maxIngredientChars = 80
)

type Notifier interface {
	Notify(ctx context.Context, input notificationsdomain.CreateInput)
}

type Service struct {
	repo     Repository
	notifier Notifier
	pageSize int
	log      logger.Logger
	newID    func() string
}

func NewService(repo Repository, notifier Notifier, pageSize int, log logger.Logger) *Service {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		pageSize: pageSize,
		log:      log,
		newID:    uuid.NewString,
	}
}

func (s *Service) CreateDish(ctx context.Context, input CreateDishInput) (*DishView, error) {
	available := true
	if input.Available != nil {
		available = *input.Available
	}

	dish := Dish{
		ID:            s.newID(),
		OwnerID:       input.OwnerID,
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Price:         roundPrice(input.Price),
		Portions:      input.Portions,
		Ingredients:   datatypes.JSONSlice[string](normalizeIngredients(input.Ingredients)),
		Images:        datatypes.JSONSlice[string](normalizeImages(input.Images)),
		Available:     available,
		AvailableFrom: utcPtr(input.AvailableFrom),
		AvailableTo:   utcPtr(input.AvailableTo),
	}
	if err := validateDish(&dish); err != nil {
		return nil, err
	}

	if err := s.repo.CreateDish(ctx, &dish); err != nil {
		return nil, err
	}

	return s.repo.GetDishView(ctx, dish.ID, input.OwnerID, bookingsdomain.CapacityStatuses)
}

func (s *Service) GetDish(ctx context.Context, dishID, viewerID string) (*DishView, error) {
	if _, err := uuid.Parse(dishID); err != nil {
		return nil, ErrDishNotFound
	}
	return s.repo.GetDishView(ctx, dishID, viewerID, bookingsdomain.CapacityStatuses)
}

// UpdateDish applies a partial update by the owner. Portions cannot drop below what live
// bookings already hold; the check runs under the same dish lock bookings take.
func (s *Service) UpdateDish(ctx context.Context, dishID, actorID string, input UpdateDishInput) (*DishView, error) {
	if _, err := uuid.Parse(dishID); err != nil {
		return nil, ErrDishNotFound
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		dish, err := tx.LockDish(ctx, dishID)
		if err != nil {
			return err
		}
		if dish.OwnerID != actorID {
			return ErrForbidden
		}

		portionsChanged := input.Portions != nil && *input.Portions != dish.Portions
		applyUpdate(dish, input)
		if err := validateDish(dish); err != nil {
			return err
		}

		if portionsChanged {
			committed, err := tx.SumCommittedPortions(ctx, dish.ID, bookingsdomain.CapacityStatuses)
			if err != nil {
				return err
			}
			if dish.Portions < committed {
				return fmt.Errorf("%w: %d portions are already booked", ErrPortionsBelowCommitted, committed)
			}
		}

		return tx.UpdateDish(ctx, dish)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetDishView(ctx, dishID, actorID, bookingsdomain.CapacityStatuses)
}

// DeleteDish removes the dish with its bookings, likes and conversations.
// Users holding live bookings are told the dish is gone.
func (s *Service) DeleteDish(ctx context.Context, dishID, actorID string) error {
	if _, err := uuid.Parse(dishID); err != nil {
		return ErrDishNotFound
	}

	var (
		title   string
		bookers []string
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		dish, err := tx.LockDish(ctx, dishID)
		if err != nil {
			return err
		}
		if dish.OwnerID != actorID {
			return ErrForbidden
		}

		bookers, err = tx.ListBookerIDs(ctx, dish.ID, bookingsdomain.CapacityStatuses)
		if err != nil {
			return err
		}
		title = dish.Title
		return tx.DeleteDish(ctx, dish.ID)
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		for _, userID := range bookers {
			s.notifier.Notify(ctx, notificationsdomain.CreateInput{
				UserID:  userID,
				Type:    notificationsdomain.TypeDishRemoved,
				Message: fmt.Sprintf("%q was removed by its owner and your booking was cancelled", title),
			})
		}
	}
	return nil
}

func (s *Service) ListDishes(ctx context.Context, filter ListFilter) (*DishPage, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Sort = strings.ToLower(strings.TrimSpace(filter.Sort))
	switch filter.Sort {
	case "":
		filter.Sort = SortRecent
	case SortRecent, SortPriceAsc, SortPriceDesc:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, filter.Sort)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("%w: min price is greater than max price", ErrInvalidInput)
	}
	if filter.BuildingID != nil {
		if _, err := uuid.Parse(*filter.BuildingID); err != nil {
			return nil, fmt.Errorf("%w: invalid building id", ErrInvalidInput)
		}
	}

	total, err := s.repo.CountDishes(ctx, filter, bookingsdomain.CapacityStatuses)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(s.pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}
	page := min(max(filter.Page, 1), totalPages)
	filter.Page = page

	items, err := s.repo.ListDishes(ctx, filter, bookingsdomain.CapacityStatuses, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []DishView{}
	}

	return &DishPage{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		PageSize:   s.pageSize,
	}, nil
}

// ToggleLike flips the caller's like on a dish. The like row and likes_count change together.
func (s *Service) ToggleLike(ctx context.Context, dishID, userID string) (*LikeResult, error) {
	if _, err := uuid.Parse(dishID); err != nil {
		return nil, ErrDishNotFound
	}

	var result LikeResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.LockDish(ctx, dishID); err != nil {
			return err
		}

		removed, err := tx.DeleteLike(ctx, dishID, userID)
		if err != nil {
			return err
		}
		if removed {
			count, err := tx.AdjustLikes(ctx, dishID, -1)
			if err != nil {
				return err
			}
			result = LikeResult{Liked: false, LikesCount: count}
			return nil
		}

		inserted, err := tx.InsertLike(ctx, &Like{ID: s.newID(), UserID: userID, DishID: dishID})
		if err != nil {
			return err
		}
		delta := 0
		if inserted {
			delta = 1
		}
		count, err := tx.AdjustLikes(ctx, dishID, delta)
		if err != nil {
			return err
		}
		result = LikeResult{Liked: true, LikesCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func applyUpdate(dish *Dish, input UpdateDishInput) {
	if input.Title != nil {
		dish.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		dish.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		dish.Price = roundPrice(*input.Price)
	}
	if input.Portions != nil {
		dish.Portions = *input.Portions
	}
	if input.Ingredients != nil {
		dish.Ingredients = datatypes.JSONSlice[string](normalizeIngredients(*input.Ingredients))
	}
	if input.Images != nil {
		dish.Images = datatypes.JSONSlice[string](normalizeImages(*input.Images))
	}
	if input.Available != nil {
		dish.Available = *input.Available
	}
	if input.ClearWindow {
		dish.AvailableFrom = nil
		dish.AvailableTo = nil
	}
	if input.AvailableFrom != nil {
		dish.AvailableFrom = utcPtr(input.AvailableFrom)
	}
	if input.AvailableTo != nil {
		dish.AvailableTo = utcPtr(input.AvailableTo)
	}
}

func validateDish(dish *Dish) error {
	switch {
	case dish.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case utf8.RuneCountInString(dish.Title) > maxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLength)
	case utf8.RuneCountInString(dish.Description) > maxDescription:
		return fmt.Errorf("%w: description is too long", ErrInvalidInput)
	case math.IsNaN(dish.Price) || dish.Price <= 0 || dish.Price > maxPrice:
		return fmt.Errorf("%w: price must be greater than 0", ErrInvalidInput)
	case dish.Portions < 0 || dish.Portions > maxPortions:
		return fmt.Errorf("%w: portions must be between 0 and %d", ErrInvalidInput, maxPortions)
	case len(dish.Images) > maxImages:
		return fmt.Errorf("%w: at most %d images", ErrInvalidInput, maxImages)
	case len(dish.Ingredients) > maxIngredients:
		return fmt.Errorf("%w: at most %d ingredients", ErrInvalidInput, maxIngredients)
	case dish.AvailableFrom != nil && dish.AvailableTo != nil && dish.AvailableFrom.After(*dish.AvailableTo):
		return fmt.Errorf("%w: available_from must not be after available_to", ErrInvalidInput)
	}
	for _, ingredient := range dish.Ingredients {
		if utf8.RuneCountInString(ingredient) > maxIngredientChars {
			return fmt.Errorf("%w: ingredient %q is too long", ErrInvalidInput, ingredient)
		}
	}
	return nil
}

func normalizeIngredients(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		item := strings.TrimSpace(value)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

func normalizeImages(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if item := strings.TrimSpace(value); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func roundPrice(price float64) float64 {
	return math.Round(price*100) / 100
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
