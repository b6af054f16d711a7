package types

import "strings"

// MaxContentLength bounds user-supplied text on both sockets.
const MaxContentLength = 4096

// Validate ensures a class frame names a known operation and carries the
// fields that operation needs.
func (f *ClassFrame) Validate() error {
	switch f.Type {
	case FrameCreateQuestion:
		// class scope comes from the connection
	case FrameCreateAnswer:
		if f.QuestionID <= 0 {
			return ErrMissingQuestionID
		}
	default:
		return ErrInvalidFrameType
	}
	return validateContent(f.Content)
}

// Validate ensures a chat frame addresses a user and carries content.
func (f *ChatFrame) Validate() error {
	if f.ReceiverID <= 0 {
		return ErrMissingReceiver
	}
	return validateContent(f.Content)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}
