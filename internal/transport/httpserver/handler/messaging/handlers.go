package messaging

import (
	"context"

	messagingdomain "foodshare-go/internal/domain/messaging"
	"foodshare-go/pkg/logger"
)

type MessagingService interface {
	GetOrCreateConversation(ctx context.Context, dishID, userA, userB string) (*messagingdomain.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID, content string) (*messagingdomain.Message, error)
	ListMessages(ctx context.Context, conversationID, requesterID string) ([]messagingdomain.Message, error)
	ListConversations(ctx context.Context, userID string) ([]messagingdomain.ConversationSummary, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type Handlers struct {
	Messaging MessagingService
	log       logger.Logger
}

func New(messaging MessagingService, log logger.Logger) *Handlers {
	return &Handlers{
		Messaging: messaging,
		log:       log,
	}
}
