package interfaces

import "errors"

// Store errors shared across components
var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrStoreClosed      = errors.New("message store is closed")
)
