package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// wsConn wraps a gorilla connection behind the room.Conn interface. Send is
// serialized through a one-slot channel so the room goroutine and the close
// path never interleave writes.
type wsConn struct {
	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(frame any) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	return c.conn.WriteJSON(frame)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
