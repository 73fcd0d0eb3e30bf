package identity

import (
	"context"

	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/pkg/logger"
)

type UserService interface {
	SignUp(ctx context.Context, input userdomain.SignUpInput) (*userdomain.User, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*userdomain.LoginResult, error)
	ListBuildings(ctx context.Context) ([]userdomain.Building, error)
	CreateBuilding(ctx context.Context, name, address string) (*userdomain.Building, error)
	ListUsers(ctx context.Context, filter userdomain.ListUsersFilter) ([]userdomain.User, int64, error)
	SetBlocked(ctx context.Context, actorID, userID string, blocked bool) error
}

type CookieOptions struct {
	Name   string
	Secure bool
}

type Handlers struct {
	Users  UserService
	cookie CookieOptions
	log    logger.Logger
}

func New(users UserService, cookie CookieOptions, log logger.Logger) *Handlers {
	return &Handlers{
		Users:  users,
		cookie: cookie,
		log:    log,
	}
}
