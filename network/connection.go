// network/connection.go
package network

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection abstracts one live client transport. The protocol is one JSON
// object per text frame.
type Connection interface {
	SendText(payload []byte) error
	ReadText() ([]byte, error)
	Close() error
	CloseWithReason(code int, reason string) error
	RemoteAddr() net.Addr
}

// WSConnection wraps a gorilla websocket connection. Writes are serialized
// with a mutex because gorilla allows at most one concurrent writer.
type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

func (c *WSConnection) SendText(payload []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *WSConnection) ReadText() ([]byte, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			// Binary and control frames are not part of the protocol.
			continue
		}
		return data, nil
	}
}

// CloseWithReason sends a close control frame carrying the code and reason,
// then tears the connection down.
func (c *WSConnection) CloseWithReason(code int, reason string) error {
	c.sendMutex.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.sendMutex.Unlock()

	return c.conn.Close()
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
