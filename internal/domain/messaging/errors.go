package messaging

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrDishNotFound         = errors.New("dish not found")
	ErrNotParticipant       = errors.New("not a conversation participant")
	ErrOwnerNotParticipant  = errors.New("dish owner must be a participant")
	ErrSameParticipant      = errors.New("cannot start a conversation with yourself")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidInput         = errors.New("invalid input")
)
