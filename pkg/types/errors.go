package types

import "errors"

// Frame validation errors
var (
	ErrInvalidFrameType  = errors.New("invalid frame type")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrContentTooLong    = errors.New("content exceeds maximum length")
	ErrMissingQuestionID = errors.New("question_id is required for answers")
	ErrMissingReceiver   = errors.New("receiver_id is required")
)
