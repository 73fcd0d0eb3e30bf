package user

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrEmailTaken              = errors.New("email already registered")
	ErrApartmentTaken          = errors.New("apartment already registered in building")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUserBlocked             = errors.New("user blocked")
	ErrEmailNotVerified        = errors.New("email not verified")
	ErrUserNotFound            = errors.New("user not found")
	ErrBuildingNotFound        = errors.New("building not found")
	ErrVerificationCodeInvalid = errors.New("verification code invalid")
	ErrVerificationCodeExpired = errors.New("verification code expired")
	ErrAlreadyVerified         = errors.New("email already verified")
)
