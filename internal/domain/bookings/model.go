package bookings

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// CapacityStatuses are the statuses whose portions count against a dish's capacity.
var CapacityStatuses = []Status{StatusPending, StatusApproved}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// ParseStatus accepts any casing. The legacy "confirmed" value maps to APPROVED.
func ParseStatus(value string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(StatusPending):
		return StatusPending, nil
	case string(StatusApproved), "CONFIRMED":
		return StatusApproved, nil
	case string(StatusRejected):
		return StatusRejected, nil
	case string(StatusCancelled), "CANCELED":
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

type Booking struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	DishID     string    `gorm:"type:uuid;not null;index"`
	UserID     string    `gorm:"type:uuid;not null;index"`
	PickupTime time.Time `gorm:"not null"`
	Portions   int       `gorm:"not null"`
	Status     Status    `gorm:"type:varchar(16);not null"`
	Total      float64   `gorm:"type:numeric(12,2);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// DishSnapshot is the part of a dish the ledger needs, read under the dish row lock.
type DishSnapshot struct {
	ID            string
	OwnerID       string
	Title         string
	Price         float64
	Portions      int
	Available     bool
	AvailableFrom *time.Time
	AvailableTo   *time.Time
}

// BookingView is a booking with denormalized dish, owner, booker and building fields.
type BookingView struct {
	Booking
	DishTitle    string
	DishPrice    float64
	OwnerID      string
	OwnerName    string
	BookerName   string
	BuildingID   *string
	BuildingName *string
	// DishPortions and DishCommitted describe the dish's capacity at read time.
	DishPortions  int
	DishCommitted int
}

type DishBookings struct {
	DishID            string
	DishTitle         string
	Portions          int
	AvailablePortions int
	Bookings          []BookingView
}

type CreateBookingInput struct {
	DishID     string
	UserID     string
	Portions   int
	PickupTime time.Time
}
