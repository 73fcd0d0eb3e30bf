package user

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Building struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Address   string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type User struct {
	ID                    string     `gorm:"type:uuid;primaryKey"`
	Email                 string     `gorm:"not null"`
	PasswordHash          string     `gorm:"not null"`
	Name                  string     `gorm:"not null"`
	Role                  string     `gorm:"type:varchar(16);not null;default:user"`
	BuildingID            *string    `gorm:"type:uuid"`
	Apartment             *string    `gorm:"type:text"`
	Blocked               bool       `gorm:"not null;default:false"`
	EmailVerified         bool       `gorm:"not null;default:false"`
	VerificationCode      *string    `gorm:"type:varchar(6)"`
	VerificationExpiresAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the identity attached to an authenticated request.
type Session struct {
	ID           string
	Email        string
	Name         string
	Role         string
	BuildingID   *string
	BuildingName *string
}

type SignUpInput struct {
	Email      string
	Password   string
	Name       string
	BuildingID *string
	Apartment  *string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Session   Session
}

type VerificationMessage struct {
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
}

type ListUsersFilter struct {
	Query      string
	BuildingID string
	Limit      int
	Offset     int
}
