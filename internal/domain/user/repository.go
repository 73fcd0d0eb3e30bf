package user

import (
	"context"
	"time"
)

type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetSession(ctx context.Context, id string) (*User, *Building, error)
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]User, int64, error)
	SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, id string) error
	SetBlocked(ctx context.Context, id string, blocked bool) error
	CreateBuilding(ctx context.Context, building *Building) error
	GetBuilding(ctx context.Context, id string) (*Building, error)
	ListBuildings(ctx context.Context) ([]Building, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// VerificationMailer delivers verification codes, either directly or through the task queue.
type VerificationMailer interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
}
