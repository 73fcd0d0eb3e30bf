package bookings

import (
	"context"
	"fmt"
	"math"
	"time"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	"foodshare-go/pkg/logger"
	"github.com/google/uuid"
)

const maxPortionsPerBooking = 100

type Notifier interface {
	Notify(ctx context.Context, input notificationsdomain.CreateInput)
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(repo Repository, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateBooking reserves portions of a dish. The capacity check and the insert run under the
// dish row lock, so concurrent requests for one dish never commit more portions than it lists.
func (s *Service) CreateBooking(ctx context.Context, input CreateBookingInput) (*Booking, error) {
	if input.Portions < 1 || input.Portions > maxPortionsPerBooking {
		return nil, fmt.Errorf("%w: portions must be between 1 and %d", ErrInvalidInput, maxPortionsPerBooking)
	}
	if input.PickupTime.IsZero() {
		return nil, fmt.Errorf("%w: pickup time is required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(input.DishID); err != nil {
		return nil, ErrDishNotFound
	}

	var (
		result Booking
		dish   DishSnapshot
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		locked, err := tx.LockDish(ctx, input.DishID)
		if err != nil {
			return err
		}
		dish = *locked

		if dish.OwnerID == input.UserID {
			return ErrOwnDish
		}
		if !dish.Available {
			return ErrDishUnavailable
		}
		if !withinWindow(dish, input.PickupTime) {
			return ErrPickupOutsideWindow
		}

		committed, err := tx.SumCommittedPortions(ctx, dish.ID, CapacityStatuses)
		if err != nil {
			return err
		}
		available := max(dish.Portions-committed, 0)
		if input.Portions > available {
			return &CapacityError{Requested: input.Portions, Available: available}
		}

		now := s.now().UTC()
		booking := Booking{
			ID:         s.newID(),
			DishID:     dish.ID,
			UserID:     input.UserID,
			PickupTime: input.PickupTime.UTC(),
			Portions:   input.Portions,
			Status:     StatusPending,
			Total:      bookingTotal(dish.Price, input.Portions),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateBooking(ctx, &booking); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, dish.OwnerID, notificationsdomain.TypeBookingRequested,
		fmt.Sprintf("New booking request for %q: %d portion(s)", dish.Title, result.Portions))

	return &result, nil
}

// UpdateBookingStatus moves a PENDING booking to a terminal status. The dish owner approves or
// rejects, the booker cancels. Requesting the current status is a no-op.
func (s *Service) UpdateBookingStatus(ctx context.Context, bookingID, actorID string, status Status) (*Booking, error) {
	if !status.Terminal() {
		return nil, ErrInvalidStatus
	}
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, ErrBookingNotFound
	}

	var (
		result  Booking
		dish    DishSnapshot
		changed bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		booking, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		snapshot, err := tx.GetDish(ctx, booking.DishID)
		if err != nil {
			return err
		}
		dish = *snapshot

		if !canTransition(booking, dish, actorID, status) {
			return ErrForbidden
		}
		if booking.Status == status {
			result = *booking
			return nil
		}
		if booking.Status.Terminal() {
			return ErrInvalidTransition
		}

		ok, err := tx.UpdateStatus(ctx, booking.ID, StatusPending, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		booking.Status = status
		booking.UpdatedAt = s.now().UTC()
		result = *booking
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		switch status {
		case StatusApproved:
			s.notify(ctx, result.UserID, notificationsdomain.TypeBookingApproved,
				fmt.Sprintf("Your booking for %q was approved", dish.Title))
		case StatusRejected:
			s.notify(ctx, result.UserID, notificationsdomain.TypeBookingRejected,
				fmt.Sprintf("Your booking for %q was rejected", dish.Title))
		case StatusCancelled:
			s.notify(ctx, dish.OwnerID, notificationsdomain.TypeBookingCancelled,
				fmt.Sprintf("A booking for %q was cancelled", dish.Title))
		}
	}

	return &result, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID, actorID string) (*BookingView, error) {
	if _, err := uuid.Parse(bookingID); err != nil {
		return nil, ErrBookingNotFound
	}
	view, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if view.UserID != actorID && view.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return view, nil
}

// ListBookingsForDish is the owner's view of one dish, newest first.
func (s *Service) ListBookingsForDish(ctx context.Context, dishID, actorID string, statuses []Status) ([]BookingView, error) {
	if _, err := uuid.Parse(dishID); err != nil {
		return nil, ErrDishNotFound
	}
	dish, err := s.repo.GetDish(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if dish.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return s.repo.ListByDish(ctx, dishID, statuses)
}

// ListReceivedBookings groups every booking on the owner's dishes by dish.
// Groups are ordered by their most recent booking.
func (s *Service) ListReceivedBookings(ctx context.Context, ownerID string, statuses []Status) ([]DishBookings, error) {
	views, err := s.repo.ListByOwner(ctx, ownerID, statuses)
	if err != nil {
		return nil, err
	}

	groups := make([]DishBookings, 0)
	index := make(map[string]int)
	for _, view := range views {
		i, ok := index[view.DishID]
		if !ok {
			i = len(groups)
			index[view.DishID] = i
			groups = append(groups, DishBookings{
				DishID:            view.DishID,
				DishTitle:         view.DishTitle,
				Portions:          view.DishPortions,
				AvailablePortions: max(view.DishPortions-view.DishCommitted, 0),
			})
		}
		groups[i].Bookings = append(groups[i].Bookings, view)
	}

	return groups, nil
}

func (s *Service) ListBookingsForUser(ctx context.Context, userID string, statuses []Status) ([]BookingView, error) {
	return s.repo.ListByUser(ctx, userID, statuses)
}

func (s *Service) notify(ctx context.Context, userID string, kind notificationsdomain.Type, message string) {
	if s.notifier == nil || userID == "" {
		return
	}
	s.notifier.Notify(ctx, notificationsdomain.CreateInput{UserID: userID, Type: kind, Message: message})
}

func canTransition(booking *Booking, dish DishSnapshot, actorID string, status Status) bool {
	switch status {
	case StatusApproved, StatusRejected:
		return dish.OwnerID == actorID
	case StatusCancelled:
		return booking.UserID == actorID
	default:
		return false
	}
}

func withinWindow(dish DishSnapshot, pickup time.Time) bool {
	if dish.AvailableFrom != nil && pickup.Before(*dish.AvailableFrom) {
		return false
	}
	if dish.AvailableTo != nil && pickup.After(*dish.AvailableTo) {
		return false
	}
	return true
}

func bookingTotal(price float64, portions int) float64 {
	return math.Round(price*float64(portions)*100) / 100
}

// ParseStatuses parses a status filter; an empty input means no filter.
func ParseStatuses(values []string) ([]Status, error) {
	statuses := make([]Status, 0, len(values))
	for _, value := range values {
		status, err := ParseStatus(value)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
