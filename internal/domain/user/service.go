package user

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"foodshare-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	minPasswordLength    = 8
	maxNameLength        = 80
	verificationCodeSize = 6
	buildingsCacheTTL    = 5 * time.Minute
	defaultUsersLimit    = 50
	maxUsersLimit        = 200
)

type Options struct {
	VerificationTTL      time.Duration
	RequireVerifiedEmail bool
	SessionCacheTTL      time.Duration
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens TokenIssuer
	mailer VerificationMailer
	cache  Cache
	opts   Options
	log    logger.Logger

	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer, mailer VerificationMailer, opts Options, log logger.Logger) *Service {
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 15 * time.Minute
	}
	return &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  mailer,
		cache:   noopCache{},
		opts:    opts,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
		newCode: generateVerificationCode,
	}
}

func (s *Service) WithCache(cache Cache) *Service {
	if cache != nil {
		s.cache = cache
	}
	return s
}

func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	buildingID := trimmedOrNil(input.BuildingID)
	apartment := trimmedOrNil(input.Apartment)
	if apartment != nil && buildingID == nil {
		return nil, fmt.Errorf("%w: apartment requires a building", ErrInvalidInput)
	}
	if buildingID != nil {
		if _, err := uuid.Parse(*buildingID); err != nil {
			return nil, ErrBuildingNotFound
		}
		if _, err := s.repo.GetBuilding(ctx, *buildingID); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().UTC().Add(s.opts.VerificationTTL)

	user := User{
		ID:                    s.newID(),
		Email:                 email,
		PasswordHash:          hash,
		Name:                  name,
		Role:                  RoleUser,
		BuildingID:            buildingID,
		Apartment:             apartment,
		VerificationCode:      &code,
		VerificationExpiresAt: &expiresAt,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return nil, err
	}

	s.sendVerification(ctx, &user, code, expiresAt)
	return &user, nil
}

func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrVerificationCodeInvalid
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if user.VerificationCode == nil || subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(code)) != 1 {
		return ErrVerificationCodeInvalid
	}
	if user.VerificationExpiresAt == nil || !s.now().Before(*user.VerificationExpiresAt) {
		return ErrVerificationCodeExpired
	}

	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	s.cache.DeleteSession(user.ID)
	return nil
}

func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := s.newCode()
	if err != nil {
		return err
	}
	expiresAt := s.now().UTC().Add(s.opts.VerificationTTL)
	if err := s.repo.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	s.sendVerification(ctx, user, code, expiresAt)
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Compare(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}
	if s.opts.RequireVerifiedEmail && !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	session, err := s.GetSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Session: *session}, nil
}

// GetSession resolves the identity for a token subject. Blocked users have no session.
func (s *Service) GetSession(ctx context.Context, userID string) (*Session, error) {
	if cached, ok := s.cache.GetSession(userID); ok {
		return cached, nil
	}

	user, building, err := s.repo.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}

	session := Session{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		BuildingID: user.BuildingID,
	}
	if building != nil {
		name := building.Name
		session.BuildingName = &name
	}

	s.cache.SetSession(userID, &session, s.opts.SessionCacheTTL)
	return &session, nil
}

func (s *Service) ListBuildings(ctx context.Context) ([]Building, error) {
	if cached, ok := s.cache.GetBuildings(); ok {
		return cached, nil
	}

	buildings, err := s.repo.ListBuildings(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetBuildings(buildings, buildingsCacheTTL)
	return buildings, nil
}

func (s *Service) CreateBuilding(ctx context.Context, name, address string) (*Building, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	building := Building{
		ID:      s.newID(),
		Name:    name,
		Address: strings.TrimSpace(address),
	}
	if err := s.repo.CreateBuilding(ctx, &building); err != nil {
		return nil, err
	}

	s.cache.DeleteBuildings()
	return &building, nil
}

func (s *Service) ListUsers(ctx context.Context, filter ListUsersFilter) ([]User, int64, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultUsersLimit
	case filter.Limit > maxUsersLimit:
		filter.Limit = maxUsersLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.ListUsers(ctx, filter)
}

func (s *Service) SetBlocked(ctx context.Context, actorID, userID string, blocked bool) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot change own blocked state", ErrInvalidInput)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return ErrUserNotFound
	}
	if err := s.repo.SetBlocked(ctx, userID, blocked); err != nil {
		return err
	}
	s.cache.DeleteSession(userID)
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user *User, code string, expiresAt time.Time) {
	if s.mailer == nil {
		return
	}
	err := s.mailer.SendVerification(ctx, VerificationMessage{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.log.InternalError("user.verification: send failed", err, "user_id", user.ID)
	}
}

func normalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return email, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func generateVerificationCode() (string, error) {
	const digits = "0123456789"
	max := big.NewInt(int64(len(digits)))

	var builder strings.Builder
	builder.Grow(verificationCodeSize)
	for i := 0; i < verificationCodeSize; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(digits[n.Int64()])
	}
	return builder.String(), nil
}
