package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"classboard/pkg/interfaces"
)

// newTestSocketPair dials a throwaway server and returns both ends of a
// real WebSocket connection.
func newTestSocketPair(t *testing.T) (serverSide, clientSide *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-connCh:
		t.Cleanup(func() { _ = server.Close() })
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("server side of socket pair never arrived")
		return nil, nil
	}
}

// fakeConn is an in-memory interfaces.Connection for registry tests.
type fakeConn struct {
	id      string
	userID  int64
	classID int64

	mu     sync.Mutex
	events []interface{}
	failed bool
	closed bool
}

func newFakeConn(id string, userID, classID int64) *fakeConn {
	return &fakeConn{id: id, userID: userID, classID: classID}
}

func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() int64  { return c.userID }
func (c *fakeConn) ClassID() int64 { return c.classID }

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return ErrConnectionClosed
	}
	c.events = append(c.events, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

var _ interfaces.Connection = (*fakeConn)(nil)
