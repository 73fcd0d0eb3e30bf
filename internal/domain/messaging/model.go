package messaging

import "time"

type Conversation struct {
	ID               string    `gorm:"type:uuid;primaryKey"`
	DishID           string    `gorm:"type:uuid;not null"`
	ParticipantOneID string    `gorm:"type:uuid;not null"`
	ParticipantTwoID string    `gorm:"type:uuid;not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (c Conversation) HasParticipant(userID string) bool {
	return c.ParticipantOneID == userID || c.ParticipantTwoID == userID
}

func (c Conversation) OtherParticipant(userID string) string {
	if c.ParticipantOneID == userID {
		return c.ParticipantTwoID
	}
	return c.ParticipantOneID
}

type Message struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	ConversationID string    `gorm:"type:uuid;not null;index"`
	SenderID       string    `gorm:"type:uuid;not null"`
	RecipientID    string    `gorm:"type:uuid;not null"`
	Content        string    `gorm:"not null"`
	Read           bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

type ConversationSummary struct {
	Conversation
	DishTitle     string
	OtherUserID   string
	OtherUserName string
	LastMessage   *Message
	UnreadCount   int64
}

// DishInfo is what messaging needs to know about the dish a conversation is about.
type DishInfo struct {
	ID      string
	OwnerID string
	Title   string
}
