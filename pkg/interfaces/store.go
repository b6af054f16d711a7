package interfaces

import (
	"context"

	"classboard/pkg/types"
)

// MessageStore is the persistence collaborator of the realtime layer.
// Save operations return the stored object with its server-assigned id
// and timestamp; nothing may be delivered that was not saved first.
type MessageStore interface {
	// SaveMessage persists a direct-chat message.
	SaveMessage(ctx context.Context, senderID, receiverID int64, content string) (*types.Message, error)

	// SaveQuestion persists a question on a class's Q&A board.
	SaveQuestion(ctx context.Context, classID, studentID int64, content string) (*types.Question, error)

	// SaveAnswer persists an answer to an existing question.
	SaveAnswer(ctx context.Context, questionID, teacherID int64, content string) (*types.Answer, error)

	// GetQuestion retrieves a question by id. Returns ErrQuestionNotFound
	// when no such question exists.
	GetQuestion(ctx context.Context, questionID int64) (*types.Question, error)

	// GetClassQuestions returns a class's questions in creation order.
	GetClassQuestions(ctx context.Context, classID int64, limit int) ([]*types.Question, error)

	// GetQuestionAnswers returns a question's answers in creation order.
	GetQuestionAnswers(ctx context.Context, questionID int64) ([]*types.Answer, error)

	// GetConversation returns the message history between two users in
	// creation order, regardless of direction.
	GetConversation(ctx context.Context, userID, otherID int64, limit int) ([]*types.Message, error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases resources.
	Close() error
}
