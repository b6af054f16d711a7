package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps a WebSocket transport with the single-writer pattern:
// all outbound traffic funnels through a buffered channel drained by one
// goroutine, so WriteJSON is safe from any number of callers and a slow
// peer never blocks the caller beyond the enqueue timeout.
type Connection struct {
	id           string
	userID       int64
	classID      int64
	conn         *websocket.Conn
	sendCh       chan []byte
	writeTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

// NewConnection wraps an upgraded WebSocket connection. The identity is
// fixed at construction: userID comes from the verified handshake token,
// classID is zero for chat connections. The writer goroutine starts
// immediately.
func NewConnection(conn *websocket.Conn, userID, classID int64, writeTimeout time.Duration, bufferSize int) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.NewString(),
		userID:       userID,
		classID:      classID,
		conn:         conn,
		sendCh:       make(chan []byte, bufferSize),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()

	return c
}

// writeLoop is the single writer. A failed transport write cancels the
// connection context so later sends fail fast instead of piling up.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.cancel()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.cancel()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON queues one JSON event for delivery. A full send buffer that
// does not drain within the write timeout is treated the same as a dead
// peer: the connection is closed and the send reported failed.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.sendCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	case <-time.After(c.writeTimeout):
		_ = c.Close()
		return ErrWriteTimeout
	}
}

// Close tears down the transport and stops the writer. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection is no longer usable.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// ID returns the process-unique connection identity.
func (c *Connection) ID() string {
	return c.id
}

// UserID returns the authenticated user behind this connection.
func (c *Connection) UserID() int64 {
	return c.userID
}

// ClassID returns the class scope, or zero for chat connections.
func (c *Connection) ClassID() int64 {
	return c.classID
}
