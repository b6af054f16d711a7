package hub

import (
	"log"

	"classboard/internal/websocket"
)

// DirectChannel delivers an event to exactly one user's registered
// connection, if present.
type DirectChannel struct {
	registry *websocket.Registry
}

// NewDirectChannel creates a direct channel over the shared registry.
func NewDirectChannel(registry *websocket.Registry) *DirectChannel {
	return &DirectChannel{registry: registry}
}

// SendToUser delivers event to userID's connection. A recipient with no
// registered connection is a silent no-op: the payload was persisted
// before this call, so an offline user picks it up from history on the
// next poll. A failed send closes the dead connection and is otherwise
// swallowed.
func (d *DirectChannel) SendToUser(userID int64, event interface{}) {
	conn, exists := d.registry.UserConnection(userID)
	if !exists {
		return
	}

	if err := conn.WriteJSON(event); err != nil {
		log.Printf("direct: dropping connection %s for user %d: %v", conn.ID(), userID, err)
		_ = conn.Close()
	}
}
