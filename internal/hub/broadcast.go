// Package hub implements the two delivery channels of the realtime
// layer: per-class broadcast for the Q&A board and single-recipient
// delivery for direct chat. Both are best-effort and at-most-once; the
// durable copy of every payload is written by the router before either
// channel is invoked.
package hub

import (
	"log"

	"classboard/internal/websocket"
)

// BroadcastChannel fans one event out to every connection currently
// joined to a class.
type BroadcastChannel struct {
	registry *websocket.Registry
}

// NewBroadcastChannel creates a broadcast channel over the shared registry.
func NewBroadcastChannel(registry *websocket.Registry) *BroadcastChannel {
	return &BroadcastChannel{registry: registry}
}

// Broadcast delivers event to every member of classID. Each send is an
// independent unit of work: a peer that fails mid-fan-out is closed and
// logged, and delivery to the remaining members continues. Nothing is
// returned to the caller; there is no acknowledgment or retry.
func (b *BroadcastChannel) Broadcast(classID int64, event interface{}) {
	conns := b.registry.ClassConnections(classID)

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("broadcast: dropping connection %s from class %d: %v", conn.ID(), classID, err)
			_ = conn.Close()
		}
	}
}
