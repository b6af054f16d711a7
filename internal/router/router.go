package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classboard/pkg/interfaces"
	"classboard/pkg/types"
)

// Broadcaster fans an event out to every member of a class.
type Broadcaster interface {
	Broadcast(classID int64, event interface{})
}

// DirectSender delivers an event to one user's connection, if present.
type DirectSender interface {
	SendToUser(userID int64, event interface{})
}

// Router turns inbound realtime frames into persisted domain objects and
// channel deliveries. Persist-then-deliver is the load-bearing order: a
// payload that failed to save is never pushed to anyone.
type Router struct {
	store     interfaces.MessageStore
	broadcast Broadcaster
	direct    DirectSender
	limiter   *RateLimiter
}

// NewRouter creates a message router.
func NewRouter(store interfaces.MessageStore, broadcast Broadcaster, direct DirectSender, framesPerMinute int) *Router {
	return &Router{
		store:     store,
		broadcast: broadcast,
		direct:    direct,
		limiter:   NewRateLimiter(framesPerMinute),
	}
}

// HandleClassFrame processes one inbound frame from a class socket. The
// returned error is a verdict on this frame only; the caller reports it
// to the sender and keeps the connection open.
func (r *Router) HandleClassFrame(ctx context.Context, classID, senderID int64, data []byte) error {
	var frame types.ClassFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ErrMalformedFrame
	}
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if !r.limiter.Allow(senderID) {
		return ErrRateLimitExceeded
	}

	switch frame.Type {
	case types.FrameCreateQuestion:
		_, err := r.CreateQuestion(ctx, classID, senderID, frame.Content)
		return err
	case types.FrameCreateAnswer:
		_, err := r.CreateAnswer(ctx, frame.QuestionID, senderID, frame.Content)
		return err
	default:
		return ErrMalformedFrame
	}
}

// HandleChatFrame processes one inbound frame from a chat socket.
func (r *Router) HandleChatFrame(ctx context.Context, senderID int64, data []byte) error {
	var frame types.ChatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ErrMalformedFrame
	}
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if !r.limiter.Allow(senderID) {
		return ErrRateLimitExceeded
	}

	msg, err := r.store.SaveMessage(ctx, senderID, frame.ReceiverID, frame.Content)
	if err != nil {
		return fmt.Errorf("%w: save message: %v", ErrPersistence, err)
	}

	r.direct.SendToUser(frame.ReceiverID, types.NewMessageEvent(msg))
	return nil
}

// CreateQuestion persists a question and broadcasts it to its class.
// Also the backing operation for the REST create endpoint.
func (r *Router) CreateQuestion(ctx context.Context, classID, authorID int64, content string) (*types.Question, error) {
	question, err := r.store.SaveQuestion(ctx, classID, authorID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: save question: %v", ErrPersistence, err)
	}

	r.broadcast.Broadcast(classID, types.NewQuestionEvent(question))
	return question, nil
}

// CreateAnswer persists an answer and broadcasts it to the parent
// question's class, which is resolved here rather than trusted from the
// frame.
func (r *Router) CreateAnswer(ctx context.Context, questionID, authorID int64, content string) (*types.Answer, error) {
	question, err := r.store.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrQuestionNotFound) {
			return nil, ErrUnknownQuestion
		}
		return nil, fmt.Errorf("%w: load question: %v", ErrPersistence, err)
	}

	answer, err := r.store.SaveAnswer(ctx, questionID, authorID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: save answer: %v", ErrPersistence, err)
	}

	r.broadcast.Broadcast(question.ClassID, types.NewAnswerEvent(answer))
	return answer, nil
}
