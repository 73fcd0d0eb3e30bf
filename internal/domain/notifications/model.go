package notifications

import "time"

type Type string

const (
	TypeMessage          Type = "message"
	TypeBookingRequested Type = "booking_requested"
	TypeBookingApproved  Type = "booking_approved"
	TypeBookingRejected  Type = "booking_rejected"
	TypeBookingCancelled Type = "booking_cancelled"
	TypeDishRemoved      Type = "dish_removed"
)

type Notification struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	Type      Type      `gorm:"type:varchar(32);not null"`
	Message   string    `gorm:"not null"`
	Read      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type CreateInput struct {
	UserID  string
	Type    Type
	Message string
}

type ListFilter struct {
	UnreadOnly bool
	Limit      int
}
