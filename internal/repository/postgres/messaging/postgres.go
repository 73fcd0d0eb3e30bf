package messaging

import (
	"context"
	"errors"
	"time"

	messagingdomain "foodshare-go/internal/domain/messaging"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type summaryRow struct {
	ID               string
	DishID           string
	ParticipantOneID string
	ParticipantTwoID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DishTitle        string
	OtherUserID      string
	OtherUserName    string
}

type unreadRow struct {
	ConversationID string
	Count          int64
}

func (r *PostgresRepository) GetDish(ctx context.Context, dishID string) (*messagingdomain.DishInfo, error) {
	var dish messagingdomain.DishInfo
	err := r.db.WithContext(ctx).
		Table("dishes").
		Select("id, owner_id, title").
		Where("id = ?", dishID).
		Take(&dish).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, messagingdomain.ErrDishNotFound
		}
		return nil, err
	}
	return &dish, nil
}

func (r *PostgresRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("users").Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) InsertConversation(ctx context.Context, conversation *messagingdomain.Conversation) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "dish_id"},
				{Name: "participant_one_id"},
				{Name: "participant_two_id"},
			},
			DoNothing: true,
		}).
		Create(conversation)
	return result.RowsAffected == 1, result.Error
}

func (r *PostgresRepository) FindConversation(ctx context.Context, dishID, participantOneID, participantTwoID string) (*messagingdomain.Conversation, error) {
	return firstConversation(
		r.db.WithContext(ctx).Where(
			"dish_id = ? AND participant_one_id = ? AND participant_two_id = ?",
			dishID, participantOneID, participantTwoID,
		),
	)
}

func (r *PostgresRepository) GetConversation(ctx context.Context, conversationID string) (*messagingdomain.Conversation, error) {
	return firstConversation(r.db.WithContext(ctx).Where("id = ?", conversationID))
}

func firstConversation(query *gorm.DB) (*messagingdomain.Conversation, error) {
	var conversation messagingdomain.Conversation
	if err := query.First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, messagingdomain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *PostgresRepository) ListConversations(ctx context.Context, userID string) ([]messagingdomain.ConversationSummary, error) {
	var rows []summaryRow
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select(`c.*, d.title AS dish_title, u.id AS other_user_id, u.name AS other_user_name`).
		Joins("JOIN dishes d ON d.id = c.dish_id").
		Joins(`JOIN users u ON u.id = CASE WHEN c.participant_one_id = ? THEN c.participant_two_id ELSE c.participant_one_id END`, userID).
		Where("c.participant_one_id = ? OR c.participant_two_id = ?", userID, userID).
		Order("c.updated_at desc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []messagingdomain.ConversationSummary{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var lastMessages []messagingdomain.Message
	err = r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (conversation_id) * FROM messages
			WHERE conversation_id IN ?
			ORDER BY conversation_id, created_at DESC, id DESC`, ids).
		Scan(&lastMessages).Error
	if err != nil {
		return nil, err
	}
	lastByConversation := make(map[string]messagingdomain.Message, len(lastMessages))
	for _, message := range lastMessages {
		lastByConversation[message.ConversationID] = message
	}

	var unread []unreadRow
	err = r.db.WithContext(ctx).
		Model(&messagingdomain.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND recipient_id = ? AND read = ?", ids, userID, false).
		Group("conversation_id").
		Scan(&unread).Error
	if err != nil {
		return nil, err
	}
	unreadByConversation := make(map[string]int64, len(unread))
	for _, row := range unread {
		unreadByConversation[row.ConversationID] = row.Count
	}

	summaries := make([]messagingdomain.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		summary := messagingdomain.ConversationSummary{
			Conversation: messagingdomain.Conversation{
				ID:               row.ID,
				DishID:           row.DishID,
				ParticipantOneID: row.ParticipantOneID,
				ParticipantTwoID: row.ParticipantTwoID,
				CreatedAt:        row.CreatedAt,
				UpdatedAt:        row.UpdatedAt,
			},
			DishTitle:     row.DishTitle,
			OtherUserID:   row.OtherUserID,
			OtherUserName: row.OtherUserName,
			UnreadCount:   unreadByConversation[row.ID],
		}
		if last, ok := lastByConversation[row.ID]; ok {
			summary.LastMessage = &last
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, message *messagingdomain.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *PostgresRepository) TouchConversation(ctx context.Context, conversationID string) error {
	return r.db.WithContext(ctx).
		Model(&messagingdomain.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID string) ([]messagingdomain.Message, error) {
	var messages []messagingdomain.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Order("id asc").
		Find(&messages).Error
	return messages, err
}

func (r *PostgresRepository) MarkRead(ctx context.Context, conversationID, recipientID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&messagingdomain.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read = ?", conversationID, recipientID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&messagingdomain.Message{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
