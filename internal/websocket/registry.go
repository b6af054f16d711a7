package websocket

import (
	"sync"

	"classboard/pkg/interfaces"
)

// Registry tracks open realtime connections under two independent
// indices: class id -> member set for the Q&A broadcast channel, and
// user id -> single connection for direct chat. All mutation is
// serialized; reads return snapshots so a suspended send on one
// connection never holds the registry lock.
type Registry struct {
	mu         sync.RWMutex
	classConns map[int64]map[interfaces.Connection]struct{}
	userConns  map[int64]interfaces.Connection
}

// NewRegistry creates an empty registry. Constructed once at server
// start and injected into the handlers and channels that share it.
func NewRegistry() *Registry {
	return &Registry{
		classConns: make(map[int64]map[interfaces.Connection]struct{}),
		userConns:  make(map[int64]interfaces.Connection),
	}
}

// JoinClass adds a connection to a class's broadcast member set.
func (r *Registry) JoinClass(classID int64, conn interfaces.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.classConns[classID]
	if !exists {
		members = make(map[interfaces.Connection]struct{})
		r.classConns[classID] = members
	}
	members[conn] = struct{}{}
}

// LeaveClass removes a connection from a class's member set. Idempotent;
// the class key is dropped once its set becomes empty.
func (r *Registry) LeaveClass(classID int64, conn interfaces.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.classConns[classID]
	if !exists {
		return
	}

	delete(members, conn)
	if len(members) == 0 {
		delete(r.classConns, classID)
	}
}

// RegisterUser stores the direct-chat connection for a user, replacing
// any prior entry. Last writer wins: the prior connection is neither
// drained nor closed here, its own read loop will notice the transport
// go away and run the deregistration path.
func (r *Registry) RegisterUser(userID int64, conn interfaces.Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.userConns[userID] = conn
}

// UnregisterUser removes the direct-chat entry for a user. Idempotent,
// and a no-op if a different connection has since replaced conn, so a
// stale connection's cleanup can never evict its replacement.
func (r *Registry) UnregisterUser(userID int64, conn interfaces.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered, exists := r.userConns[userID]
	if !exists {
		return
	}
	if conn != nil && registered.ID() != conn.ID() {
		return
	}

	delete(r.userConns, userID)
}

// ClassConnections returns a snapshot of a class's current members.
func (r *Registry) ClassConnections(classID int64) []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, exists := r.classConns[classID]
	if !exists {
		return nil
	}

	conns := make([]interfaces.Connection, 0, len(members))
	for conn := range members {
		conns = append(conns, conn)
	}
	return conns
}

// UserConnection returns the direct-chat connection for a user, if any.
func (r *Registry) UserConnection(userID int64) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.userConns[userID]
	return conn, exists
}

// HasClass reports whether a class currently has any members.
func (r *Registry) HasClass(classID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.classConns[classID]
	return exists
}

// Stats returns registry counts for the stats endpoint and logs.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classConns := 0
	for _, members := range r.classConns {
		classConns += len(members)
	}

	return map[string]int{
		"class_channels":     len(r.classConns),
		"class_connections":  classConns,
		"direct_connections": len(r.userConns),
	}
}
