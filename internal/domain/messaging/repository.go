package messaging

import "context"

type Repository interface {
	GetDish(ctx context.Context, dishID string) (*DishInfo, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	// InsertConversation reports false when the (dish, pair) conversation already exists.
	InsertConversation(ctx context.Context, conversation *Conversation) (bool, error)
	FindConversation(ctx context.Context, dishID, participantOneID, participantTwoID string) (*Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error)
	CreateMessage(ctx context.Context, message *Message) error
	TouchConversation(ctx context.Context, conversationID string) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	MarkRead(ctx context.Context, conversationID, recipientID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}
