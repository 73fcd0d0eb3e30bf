package dishes

import "errors"

var (
	ErrDishNotFound           = errors.New("dish not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPortionsBelowCommitted = errors.New("portions below already booked portions")
)
