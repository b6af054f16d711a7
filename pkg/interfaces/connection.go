package interfaces

// Connection is a handle to one open realtime transport. Implementations
// must make WriteJSON safe for concurrent callers; the websocket
// implementation does this with a single writer goroutine.
type Connection interface {
	// ID returns a process-unique identity for this connection, used to
	// distinguish a replaced connection from its replacement.
	ID() string

	// UserID returns the authenticated user this connection belongs to.
	UserID() int64

	// ClassID returns the class scope captured at connect time, or zero
	// for direct-chat connections.
	ClassID() int64

	// WriteJSON sends one JSON-encoded event to the peer. A send failure
	// means the peer is gone or hopelessly backed up.
	WriteJSON(v interface{}) error

	// Close tears down the transport. Idempotent.
	Close() error
}
