package bookings

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrDishNotFound        = errors.New("dish not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrOwnDish             = errors.New("cannot book own dish")
	ErrDishUnavailable     = errors.New("dish is not available")
	ErrPickupOutsideWindow = errors.New("pickup time outside availability window")
	ErrInvalidInput        = errors.New("invalid input")
	ErrCapacityExceeded    = errors.New("not enough portions available")
)

// CapacityError reports how many portions were left when a booking did not fit.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: requested %d, available %d", ErrCapacityExceeded, e.Requested, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
