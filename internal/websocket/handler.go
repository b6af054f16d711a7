package websocket

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"classboard/internal/auth"
	"classboard/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking belongs to the deployment's reverse proxy.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// FrameRouter consumes validated inbound frames. Implemented by the
// message router; declared here so the handler does not depend on it.
type FrameRouter interface {
	HandleClassFrame(ctx context.Context, classID, senderID int64, data []byte) error
	HandleChatFrame(ctx context.Context, senderID int64, data []byte) error
}

// TokenVerifier validates handshake tokens.
type TokenVerifier interface {
	Verify(tokenStr string) (*auth.Claims, error)
}

// Options tunes the per-connection transport behavior.
type Options struct {
	PingInterval   time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int
	MaxMessageSize int64
}

// DefaultOptions returns the intervals the service runs with unless
// configured otherwise.
func DefaultOptions() Options {
	return Options{
		PingInterval:   30 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBufferSize: 100,
		MaxMessageSize: 8192,
	}
}

// Handler owns the two upgrade endpoints and drives each connection
// through its lifecycle: validate the handshake, upgrade, register with
// the registry, pump inbound frames to the router, and deregister on
// any disconnect.
type Handler struct {
	registry *Registry
	router   FrameRouter
	tokens   TokenVerifier
	opts     Options
}

// NewHandler creates a WebSocket handler.
func NewHandler(registry *Registry, router FrameRouter, tokens TokenVerifier, opts Options) *Handler {
	return &Handler{
		registry: registry,
		router:   router,
		tokens:   tokens,
		opts:     opts,
	}
}

// HandleClassSocket serves GET /ws/qa?class_id=N&token=T. The connection
// joins the class's broadcast channel; inbound frames create questions
// and answers, outbound events are the class's live Q&A updates.
func (h *Handler) HandleClassSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	classID, err := strconv.ParseInt(r.URL.Query().Get("class_id"), 10, 64)
	if err != nil || classID <= 0 {
		http.Error(w, ErrInvalidClassID.Error(), http.StatusBadRequest)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(wsConn, claims.UserID, classID, h.opts.WriteTimeout, h.opts.SendBufferSize)
	h.registry.JoinClass(classID, conn)
	log.Printf("class socket open: conn=%s user=%d class=%d", conn.ID(), claims.UserID, classID)

	go h.readLoop(conn, func(ctx context.Context, data []byte) error {
		return h.router.HandleClassFrame(ctx, classID, claims.UserID, data)
	}, func() {
		h.registry.LeaveClass(classID, conn)
		log.Printf("class socket closed: conn=%s user=%d class=%d", conn.ID(), claims.UserID, classID)
	})
}

// HandleChatSocket serves GET /ws/chat?token=T. The connection becomes
// the user's single direct-chat endpoint, replacing any prior one.
func (h *Handler) HandleChatSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(wsConn, claims.UserID, 0, h.opts.WriteTimeout, h.opts.SendBufferSize)
	h.registry.RegisterUser(claims.UserID, conn)
	log.Printf("chat socket open: conn=%s user=%d", conn.ID(), claims.UserID)

	go h.readLoop(conn, func(ctx context.Context, data []byte) error {
		return h.router.HandleChatFrame(ctx, claims.UserID, data)
	}, func() {
		h.registry.UnregisterUser(claims.UserID, conn)
		log.Printf("chat socket closed: conn=%s user=%d", conn.ID(), claims.UserID)
	})
}

// authenticate resolves the handshake token to verified claims. The
// identity used as a registry key only ever comes from here.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
		return nil, false
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return nil, false
	}

	return claims, true
}

// readLoop pumps inbound frames until the transport disconnects, then
// runs the deregistration cleanup. Frame errors are reported back to the
// sender and never close the connection; only a transport-level read
// error ends the loop.
func (h *Handler) readLoop(conn *Connection, handle func(context.Context, []byte) error, cleanup func()) {
	defer func() {
		cleanup()
		_ = conn.Close()
	}()

	conn.conn.SetReadLimit(h.opts.MaxMessageSize)
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	go h.pingLoop(conn)

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error on %s: %v", conn.ID(), err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if err := handle(context.Background(), data); err != nil {
			if writeErr := conn.WriteJSON(types.NewErrorEvent(err)); writeErr != nil {
				return
			}
		}
	}
}

// pingLoop keeps the peer's read deadline fed until the connection dies.
func (h *Handler) pingLoop(conn *Connection) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(h.opts.WriteTimeout)
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-conn.Done():
			return
		}
	}
}
