package router

import "errors"

// Frame-level error taxonomy. MalformedFrame and RateLimitExceeded are
// recovered locally by the socket handler; Persistence means the save
// failed and delivery was withheld.
var (
	ErrMalformedFrame    = errors.New("malformed frame")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrUnknownQuestion   = errors.New("question does not exist")
	ErrPersistence       = errors.New("persistence failure")
)
