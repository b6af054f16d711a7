package types

import (
	"time"
)

// Inbound frame types accepted on the class socket
const (
	FrameCreateQuestion = "create_question"
	FrameCreateAnswer   = "create_answer"
)

// Outbound event types pushed over both sockets
const (
	EventNewQuestion = "new_question"
	EventNewAnswer   = "new_answer"
	EventNewMessage  = "new_message"
	EventError       = "error"
)

// Message is a persisted direct-chat message between two users.
// Immutable once stored except for the read flag, which is flipped
// by the history endpoints rather than the realtime layer.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"is_read"`
}

// Question is a persisted Q&A board entry scoped to a class.
type Question struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	ClassID   int64     `json:"class_id"`
	StudentID int64     `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Answer is a persisted reply to a Question. Its broadcast scope is the
// parent question's class, resolved at routing time.
type Answer struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	QuestionID int64     `json:"question_id"`
	TeacherID  int64     `json:"teacher_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ClassFrame is an inbound request on the class socket. The class scope
// comes from the connection itself, so the frame carries only the
// operation and its payload.
type ClassFrame struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	QuestionID int64  `json:"question_id,omitempty"`
}

// ChatFrame is an inbound request on the chat socket.
type ChatFrame struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

// QuestionEvent is broadcast to a class when a question is created.
type QuestionEvent struct {
	Type string    `json:"type"`
	Data *Question `json:"data"`
}

// AnswerEvent is broadcast to a class when an answer is created.
type AnswerEvent struct {
	Type string  `json:"type"`
	Data *Answer `json:"data"`
}

// MessageEvent is delivered to a single recipient on the chat socket.
type MessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

// ErrorEvent reports a rejected frame back to its sender. The connection
// stays open; a bad frame is never grounds for a close.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewQuestionEvent(q *Question) *QuestionEvent {
	return &QuestionEvent{Type: EventNewQuestion, Data: q}
}

func NewAnswerEvent(a *Answer) *AnswerEvent {
	return &AnswerEvent{Type: EventNewAnswer, Data: a}
}

func NewMessageEvent(m *Message) *MessageEvent {
	return &MessageEvent{Type: EventNewMessage, Message: m}
}

func NewErrorEvent(err error) *ErrorEvent {
	return &ErrorEvent{Type: EventError, Error: err.Error()}
}
