package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	"foodshare-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	dishes   map[string]*DishSnapshot
	bookings map[string]*Booking
	order    []string

	dishReads int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{dishes: map[string]*DishSnapshot{}, bookings: map[string]*Booking{}}
}

// Transaction serializes callers the way the dish row lock does.
func (r *fakeRepo) Transaction(_ context.Context, fn func(Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(r)
}

func (r *fakeRepo) LockDish(ctx context.Context, dishID string) (*DishSnapshot, error) {
	return r.GetDish(ctx, dishID)
}

func (r *fakeRepo) GetDish(_ context.Context, dishID string) (*DishSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dishReads++
	dish, ok := r.dishes[dishID]
	if !ok {
		return nil, ErrDishNotFound
	}
	copied := *dish
	return &copied, nil
}

func (r *fakeRepo) SumCommittedPortions(_ context.Context, dishID string, statuses []Status) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, b := range r.bookings {
		if b.DishID == dishID && containsStatus(statuses, b.Status) {
			total += b.Portions
		}
	}
	return total, nil
}

func (r *fakeRepo) CreateBooking(_ context.Context, booking *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *booking
	r.bookings[booking.ID] = &copied
	r.order = append(r.order, booking.ID)
	return nil
}

func (r *fakeRepo) GetBooking(_ context.Context, bookingID string) (*BookingView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return r.viewLocked(b), nil
}

func (r *fakeRepo) LockBooking(_ context.Context, bookingID string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, bookingID string, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (r *fakeRepo) ListByDish(_ context.Context, dishID string, statuses []Status) ([]BookingView, error) {
	return r.list(func(b *Booking, _ *DishSnapshot) bool { return b.DishID == dishID }, statuses), nil
}

func (r *fakeRepo) ListByOwner(_ context.Context, ownerID string, statuses []Status) ([]BookingView, error) {
	return r.list(func(_ *Booking, d *DishSnapshot) bool { return d.OwnerID == ownerID }, statuses), nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string, statuses []Status) ([]BookingView, error) {
	return r.list(func(b *Booking, _ *DishSnapshot) bool { return b.UserID == userID }, statuses), nil
}

func (r *fakeRepo) list(match func(*Booking, *DishSnapshot) bool, statuses []Status) []BookingView {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []BookingView
	for i := len(r.order) - 1; i >= 0; i-- {
		b := r.bookings[r.order[i]]
		if !match(b, r.dishes[b.DishID]) {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, b.Status) {
			continue
		}
		out = append(out, *r.viewLocked(b))
	}
	return out
}

func (r *fakeRepo) viewLocked(b *Booking) *BookingView {
	dish := r.dishes[b.DishID]
	committed := 0
	for _, other := range r.bookings {
		if other.DishID == b.DishID && containsStatus(CapacityStatuses, other.Status) {
			committed += other.Portions
		}
	}
	return &BookingView{
		Booking:       *b,
		DishTitle:     dish.Title,
		DishPrice:     dish.Price,
		OwnerID:       dish.OwnerID,
		DishPortions:  dish.Portions,
		DishCommitted: committed,
	}
}

func (r *fakeRepo) addDish(dish DishSnapshot) *DishSnapshot {
	if dish.ID == "" {
		dish.ID = uuid.NewString()
	}
	r.dishes[dish.ID] = &dish
	return &dish
}

func containsStatus(statuses []Status, status Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notificationsdomain.CreateInput
}

func (n *recordingNotifier) Notify(_ context.Context, input notificationsdomain.CreateInput) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, input)
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

const (
	ownerID = "owner"
	buyerID = "buyer"
)

func newTestService() (*Service, *fakeRepo, *recordingNotifier) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	return NewService(repo, notifier, logger.Nop()), repo, notifier
}

func pickup() time.Time {
	return time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
}

func TestCreateBookingCapacityScenario(t *testing.T) {
	svc, repo, notifier := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Lasagna", Price: 7.5, Portions: 4, Available: true})
	ctx := context.Background()

	booking, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 3, PickupTime: pickup()})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, booking.Status)
	assert.Equal(t, 22.5, booking.Total)

	committed, err := repo.SumCommittedPortions(ctx, dish.ID, CapacityStatuses)
	require.NoError(t, err)
	assert.Equal(t, 1, dish.Portions-committed)

	_, err = svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: "other", Portions: 2, PickupTime: pickup()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 1, capErr.Available)
	assert.Equal(t, 2, capErr.Requested)
	assert.Len(t, repo.bookings, 1)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, ownerID, notifier.sent[0].UserID)
	assert.Equal(t, notificationsdomain.TypeBookingRequested, notifier.sent[0].Type)
}

func TestCreateBookingConcurrentNeverOverbooks(t *testing.T) {
	svc, repo, _ := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Soup", Price: 3, Portions: 10, Available: true})

	const workers = 40
	var (
		wg        sync.WaitGroup
		succeeded int
		mu        sync.Mutex
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
				DishID:     dish.ID,
				UserID:     fmt.Sprintf("user-%d", i),
				Portions:   1 + i%3,
				PickupTime: pickup(),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrCapacityExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	committed, err := repo.SumCommittedPortions(context.Background(), dish.ID, CapacityStatuses)
	require.NoError(t, err)
	assert.LessOrEqual(t, committed, dish.Portions)
	assert.Greater(t, succeeded, 0)
	assert.Equal(t, succeeded, len(repo.bookings))
}

func TestCreateBookingRejections(t *testing.T) {
	svc, repo, notifier := newTestService()
	from := pickup().Add(-time.Hour)
	to := pickup().Add(time.Hour)
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Pie", Price: 4, Portions: 5, Available: true, AvailableFrom: &from, AvailableTo: &to})
	hidden := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Hidden", Price: 4, Portions: 5, Available: false})
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateBookingInput
		want  error
	}{
		{"zero portions", CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 0, PickupTime: pickup()}, ErrInvalidInput},
		{"no pickup", CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1}, ErrInvalidInput},
		{"unknown dish", CreateBookingInput{DishID: uuid.NewString(), UserID: buyerID, Portions: 1, PickupTime: pickup()}, ErrDishNotFound},
		{"malformed dish id", CreateBookingInput{DishID: "nope", UserID: buyerID, Portions: 1, PickupTime: pickup()}, ErrDishNotFound},
		{"own dish", CreateBookingInput{DishID: dish.ID, UserID: ownerID, Portions: 1, PickupTime: pickup()}, ErrOwnDish},
		{"unavailable", CreateBookingInput{DishID: hidden.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()}, ErrDishUnavailable},
		{"before window", CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: from.Add(-time.Minute)}, ErrPickupOutsideWindow},
		{"after window", CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: to.Add(time.Minute)}, ErrPickupOutsideWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBooking(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, repo.bookings)
	assert.Empty(t, notifier.sent)
}

func TestCancelledAndRejectedBookingsFreeCapacity(t *testing.T) {
	svc, repo, _ := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Curry", Price: 5, Portions: 2, Available: true})
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 2, PickupTime: pickup()})
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: "other", Portions: 1, PickupTime: pickup()})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = svc.UpdateBookingStatus(ctx, first.ID, buyerID, StatusCancelled)
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: "other", Portions: 2, PickupTime: pickup()})
	require.NoError(t, err)
}

func TestUpdateBookingStatusTransitions(t *testing.T) {
	ctx := context.Background()
	targets := []Status{StatusApproved, StatusRejected, StatusCancelled}
	actorFor := func(status Status) string {
		if status == StatusCancelled {
			return buyerID
		}
		return ownerID
	}

	for _, first := range targets {
		for _, second := range targets {
			t.Run(fmt.Sprintf("%s_then_%s", first, second), func(t *testing.T) {
				svc, repo, _ := newTestService()
				dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Stew", Price: 2, Portions: 3, Available: true})
				booking, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()})
				require.NoError(t, err)

				updated, err := svc.UpdateBookingStatus(ctx, booking.ID, actorFor(first), first)
				require.NoError(t, err)
				assert.Equal(t, first, updated.Status)

				_, err = svc.UpdateBookingStatus(ctx, booking.ID, actorFor(second), second)
				if first == second {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, ErrInvalidTransition)
				}
				assert.Equal(t, first, repo.bookings[booking.ID].Status)
			})
		}
	}
}

func TestPendingIsNeverATarget(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Stew", Price: 2, Portions: 3, Available: true})
	booking, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()})
	require.NoError(t, err)

	_, err = svc.UpdateBookingStatus(ctx, booking.ID, ownerID, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.False(t, StatusPending.Terminal())
	for _, status := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		assert.True(t, status.Terminal(), status)
	}
}

func TestApproveNotifiesCreatorOnce(t *testing.T) {
	svc, repo, notifier := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Banana Bread", Price: 3, Portions: 3, Available: true})
	ctx := context.Background()
	booking, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()})
	require.NoError(t, err)
	notifier.reset()

	updated, err := svc.UpdateBookingStatus(ctx, booking.ID, ownerID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	_, err = svc.UpdateBookingStatus(ctx, booking.ID, ownerID, StatusApproved)
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, buyerID, notifier.sent[0].UserID)
	assert.Equal(t, notificationsdomain.TypeBookingApproved, notifier.sent[0].Type)
	assert.True(t, strings.Contains(notifier.sent[0].Message, "Banana Bread"))
}

func TestUpdateBookingStatusAuthorization(t *testing.T) {
	svc, repo, notifier := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Tacos", Price: 3, Portions: 3, Available: true})
	ctx := context.Background()
	booking, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()})
	require.NoError(t, err)
	notifier.reset()

	_, err = svc.UpdateBookingStatus(ctx, booking.ID, "stranger", StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateBookingStatus(ctx, booking.ID, buyerID, StatusApproved)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateBookingStatus(ctx, booking.ID, ownerID, StatusCancelled)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, StatusPending, repo.bookings[booking.ID].Status)
	assert.Empty(t, notifier.sent)

	_, err = svc.UpdateBookingStatus(ctx, booking.ID, ownerID, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateBookingStatus(ctx, uuid.NewString(), ownerID, StatusApproved)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelNotifiesOwner(t *testing.T) {
	svc, repo, notifier := newTestService()
	dish := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Dumplings", Price: 3, Portions: 3, Available: true})
	ctx := context.Background()
	booking, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: dish.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()})
	require.NoError(t, err)
	notifier.reset()

	_, err = svc.UpdateBookingStatus(ctx, booking.ID, buyerID, StatusCancelled)
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, ownerID, notifier.sent[0].UserID)
	assert.Equal(t, notificationsdomain.TypeBookingCancelled, notifier.sent[0].Type)
}

func TestListings(t *testing.T) {
	svc, repo, _ := newTestService()
	soup := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Soup", Price: 2, Portions: 5, Available: true})
	cake := repo.addDish(DishSnapshot{OwnerID: ownerID, Title: "Cake", Price: 4, Portions: 2, Available: true})
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: soup.ID, UserID: buyerID, Portions: 2, PickupTime: pickup()})
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, CreateBookingInput{DishID: cake.ID, UserID: buyerID, Portions: 1, PickupTime: pickup()})
	require.NoError(t, err)
	last, err := svc.CreateBooking(ctx, CreateBookingInput{DishID: soup.ID, UserID: "other", Portions: 1, PickupTime: pickup()})
	require.NoError(t, err)
	_, err = svc.UpdateBookingStatus(ctx, first.ID, ownerID, StatusRejected)
	require.NoError(t, err)

	forDish, err := svc.ListBookingsForDish(ctx, soup.ID, ownerID, nil)
	require.NoError(t, err)
	require.Len(t, forDish, 2)
	assert.Equal(t, last.ID, forDish[0].ID)

	pending, err := svc.ListBookingsForDish(ctx, soup.ID, ownerID, []Status{StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.ListBookingsForDish(ctx, soup.ID, buyerID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	reads := repo.dishReads
	groups, err := svc.ListReceivedBookings(ctx, ownerID, nil)
	require.NoError(t, err)
	assert.Equal(t, reads, repo.dishReads)
	require.Len(t, groups, 2)
	assert.Equal(t, soup.ID, groups[0].DishID)
	assert.Len(t, groups[0].Bookings, 2)
	assert.Equal(t, 4, groups[0].AvailablePortions)
	assert.Equal(t, cake.ID, groups[1].DishID)
	assert.Equal(t, 1, groups[1].AvailablePortions)

	mine, err := svc.ListBookingsForUser(ctx, buyerID, nil)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Cake", mine[0].DishTitle)

	view, err := svc.GetBooking(ctx, first.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, view.Status)
	_, err = svc.GetBooking(ctx, first.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"pending":   StatusPending,
		"APPROVED":  StatusApproved,
		"confirmed": StatusApproved,
		"Rejected":  StatusRejected,
		"canceled":  StatusCancelled,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	statuses, err := ParseStatuses([]string{"pending", "approved"})
	require.NoError(t, err)
	assert.Equal(t, CapacityStatuses, statuses)
}

func TestBookingTotalRounds(t *testing.T) {
	assert.Equal(t, 0.3, bookingTotal(0.1, 3))
	assert.Equal(t, 20.97, bookingTotal(6.99, 3))
}
