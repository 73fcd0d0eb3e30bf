package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	notificationsdomain "foodshare-go/internal/domain/notifications"
	"foodshare-go/pkg/logger"
	"github.com/google/uuid"
)

const (
	maxMessageLength = 2000
	previewLength    = 80
)

type Notifier interface {
	Notify(ctx context.Context, input notificationsdomain.CreateInput)
}

type Service struct {
	repo     Repository
	notifier Notifier
	log      logger.Logger
	newID    func() string
}

func NewService(repo Repository, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		newID:    uuid.NewString,
	}
}

// GetOrCreateConversation returns the single conversation for a dish and an unordered pair of
// users, creating it on first use. One of the two must own the dish; an empty userB means the owner.
func (s *Service) GetOrCreateConversation(ctx context.Context, dishID, userA, userB string) (*Conversation, error) {
	parsedDish, err := uuid.Parse(dishID)
	if err != nil {
		return nil, ErrDishNotFound
	}
	dishID = parsedDish.String()
	// Participants are compared and ordered as canonical lower-case strings, matching uuid ordering in the store.
	if userB != "" {
		parsedUser, err := uuid.Parse(userB)
		if err != nil {
			return nil, ErrUserNotFound
		}
		userB = parsedUser.String()
	}
	if userA == userB {
		return nil, ErrSameParticipant
	}

	dish, err := s.repo.GetDish(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if userB == "" {
		userB = dish.OwnerID
		if userA == userB {
			return nil, ErrSameParticipant
		}
	}
	if dish.OwnerID != userA && dish.OwnerID != userB {
		return nil, ErrOwnerNotParticipant
	}

	exists, err := s.repo.UserExists(ctx, userB)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	one, two := orderedPair(userA, userB)
	if existing, err := s.repo.FindConversation(ctx, dishID, one, two); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}

	conversation := Conversation{
		ID:               s.newID(),
		DishID:           dishID,
		ParticipantOneID: one,
		ParticipantTwoID: two,
	}
	inserted, err := s.repo.InsertConversation(ctx, &conversation)
	if err != nil {
		return nil, err
	}
	if inserted {
		return &conversation, nil
	}

	// Lost a race with a concurrent creator; return the row that won.
	return s.repo.FindConversation(ctx, dishID, one, two)
}

func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: content must be at most %d characters", ErrInvalidInput, maxMessageLength)
	}

	conversation, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	message := Message{
		ID:             s.newID(),
		ConversationID: conversation.ID,
		SenderID:       senderID,
		RecipientID:    conversation.OtherParticipant(senderID),
		Content:        content,
	}
	if err := s.repo.CreateMessage(ctx, &message); err != nil {
		return nil, err
	}
	if err := s.repo.TouchConversation(ctx, conversation.ID); err != nil {
		s.log.InternalError("messaging.send: touch conversation failed", err, "conversation_id", conversation.ID)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, notificationsdomain.CreateInput{
			UserID:  message.RecipientID,
			Type:    notificationsdomain.TypeMessage,
			Message: "New message: " + preview(content),
		})
	}

	return &message, nil
}

// ListMessages returns the thread oldest first and marks everything addressed to the requester as read.
func (s *Service) ListMessages(ctx context.Context, conversationID, requesterID string) ([]Message, error) {
	conversation, err := s.participantConversation(ctx, conversationID, requesterID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	marked, err := s.repo.MarkRead(ctx, conversation.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		for i := range messages {
			if messages[i].RecipientID == requesterID {
				messages[i].Read = true
			}
		}
	}

	if messages == nil {
		messages = []Message{}
	}
	return messages, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	summaries, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []ConversationSummary{}
	}
	return summaries, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) participantConversation(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, ErrConversationNotFound
	}
	conversation, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conversation, nil
}

func orderedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}
